package database

import (
	"strconv"
	"strings"

	"github.com/lib/pq"
)

const (
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Dialect captures the per-driver differences the table accessor has to
// respect when it builds statements.
type Dialect struct {
	// Name is the normalized driver name.
	Name string
	// Returning reports whether generated keys come back through
	// INSERT ... RETURNING instead of sql.Result.LastInsertId.
	Returning bool

	driverName string
	numbered   bool
	quote      func(string) string
}

var dialects = map[string]Dialect{
	DriverMySQL: {
		Name:       DriverMySQL,
		driverName: "mysql",
		quote:      quoteBacktick,
	},
	DriverSQLite: {
		Name:       DriverSQLite,
		driverName: "sqlite",
		quote:      quoteDouble,
	},
	DriverPostgres: {
		Name:       DriverPostgres,
		Returning:  true,
		driverName: "postgres",
		numbered:   true,
		quote:      pq.QuoteIdentifier,
	},
}

// DialectFor resolves a configured driver name. Common aliases are accepted.
func DialectFor(driver string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "mysql", "mariadb":
		return dialects[DriverMySQL], true
	case "sqlite", "sqlite3":
		return dialects[DriverSQLite], true
	case "postgres", "postgresql", "pg":
		return dialects[DriverPostgres], true
	}
	return Dialect{}, false
}

// Placeholder returns the marker for the n-th (1-based) positional parameter.
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Placeholders returns count markers starting at position start, joined by ", ".
func (d Dialect) Placeholders(start, count int) string {
	markers := make([]string, count)
	for i := range markers {
		markers[i] = d.Placeholder(start + i)
	}
	return strings.Join(markers, ", ")
}

// QuoteIdent quotes a table or column name.
func (d Dialect) QuoteIdent(name string) string {
	if d.quote == nil {
		return quoteDouble(name)
	}
	return d.quote(name)
}

func quoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
