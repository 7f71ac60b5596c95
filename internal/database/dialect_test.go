package database

import (
	"strings"
	"testing"

	"github.com/saltyorg/tablekit/internal/config"
)

func TestDialectFor(t *testing.T) {
	cases := map[string]string{
		"":           DriverMySQL,
		"MariaDB":    DriverMySQL,
		"sqlite3":    DriverSQLite,
		" postgres ": DriverPostgres,
		"pg":         DriverPostgres,
	}
	for in, want := range cases {
		d, ok := DialectFor(in)
		if !ok {
			t.Fatalf("DialectFor(%q) not resolved", in)
		}
		if d.Name != want {
			t.Fatalf("DialectFor(%q) = %q, want %q", in, d.Name, want)
		}
	}

	if _, ok := DialectFor("oracle"); ok {
		t.Fatal("expected oracle to be unsupported")
	}
}

func TestDialect_Placeholders(t *testing.T) {
	mysqlDialect, _ := DialectFor(DriverMySQL)
	if got := mysqlDialect.Placeholders(1, 3); got != "?, ?, ?" {
		t.Fatalf("unexpected mysql placeholders %q", got)
	}

	pgDialect, _ := DialectFor(DriverPostgres)
	if got := pgDialect.Placeholders(2, 3); got != "$2, $3, $4" {
		t.Fatalf("unexpected postgres placeholders %q", got)
	}
	if !pgDialect.Returning {
		t.Fatal("postgres should return keys via RETURNING")
	}
}

func TestDialect_QuoteIdent(t *testing.T) {
	mysqlDialect, _ := DialectFor(DriverMySQL)
	if got := mysqlDialect.QuoteIdent("first`name"); got != "`first``name`" {
		t.Fatalf("unexpected mysql quoting %q", got)
	}

	sqliteDialect, _ := DialectFor(DriverSQLite)
	if got := sqliteDialect.QuoteIdent(`people`); got != `"people"` {
		t.Fatalf("unexpected sqlite quoting %q", got)
	}

	pgDialect, _ := DialectFor(DriverPostgres)
	if got := pgDialect.QuoteIdent(`we"ird`); got != `"we""ird"` {
		t.Fatalf("unexpected postgres quoting %q", got)
	}
}

func TestDSN(t *testing.T) {
	mysqlDSN, err := DSN(config.DatabaseConfig{
		Driver:   "mysql",
		Host:     "mysql",
		User:     "root",
		Password: "pw",
		Name:     "my_database",
	})
	if err != nil {
		t.Fatalf("DSN returned error: %v", err)
	}
	if !strings.HasPrefix(mysqlDSN, "root:pw@tcp(mysql:3306)/my_database?") {
		t.Fatalf("unexpected mysql dsn %q", mysqlDSN)
	}
	if !strings.Contains(mysqlDSN, "clientFoundRows=true") {
		t.Fatalf("expected clientFoundRows in mysql dsn %q", mysqlDSN)
	}

	pgDSN, err := DSN(config.DatabaseConfig{
		Driver:   "postgres",
		Host:     "db",
		User:     "app",
		Password: "it's secret",
		Name:     "people",
		Params:   map[string]string{"sslmode": "disable"},
	})
	if err != nil {
		t.Fatalf("DSN returned error: %v", err)
	}
	want := `host=db port=5432 user=app password='it\'s secret' dbname=people sslmode=disable`
	if pgDSN != want {
		t.Fatalf("unexpected postgres dsn\n got: %s\nwant: %s", pgDSN, want)
	}

	sqliteDSN, err := DSN(config.DatabaseConfig{Driver: "sqlite", Path: "/tmp/x.db"})
	if err != nil {
		t.Fatalf("DSN returned error: %v", err)
	}
	if !strings.HasPrefix(sqliteDSN, "/tmp/x.db?_pragma=") {
		t.Fatalf("unexpected sqlite dsn %q", sqliteDSN)
	}

	if _, err := DSN(config.DatabaseConfig{Driver: "sqlite"}); err == nil {
		t.Fatal("expected error for sqlite without path")
	}
}
