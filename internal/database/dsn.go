package database

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/saltyorg/tablekit/internal/config"
)

var defaultPorts = map[string]int{
	DriverMySQL:    3306,
	DriverPostgres: 5432,
}

// sqlite pragmas applied to every connection
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
}

// DSN builds the driver-specific data source name for cfg.
func DSN(cfg config.DatabaseConfig) (string, error) {
	dialect, ok := DialectFor(cfg.Driver)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	switch dialect.Name {
	case DriverSQLite:
		return sqliteDSN(cfg)
	case DriverPostgres:
		return postgresDSN(cfg), nil
	default:
		return mysqlDSN(cfg), nil
	}
}

func mysqlDSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = hostPort(cfg)
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Name
	// Report matched rows on UPDATE, not only changed ones.
	mc.ClientFoundRows = true
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN()
}

func sqliteDSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.Path == "" {
		return "", errors.New("sqlite driver requires database.path")
	}

	query := url.Values{}
	for _, pragma := range sqlitePragmas {
		query.Add("_pragma", pragma)
	}
	for k, v := range cfg.Params {
		query.Set(k, v)
	}

	return cfg.Path + "?" + query.Encode(), nil
}

func postgresDSN(cfg config.DatabaseConfig) string {
	pairs := [][2]string{
		{"host", cfg.Host},
		{"port", strconv.Itoa(port(cfg))},
		{"user", cfg.User},
		{"password", cfg.Password},
		{"dbname", cfg.Name},
	}

	keys := make([]string, 0, len(cfg.Params))
	for k := range cfg.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = append(pairs, [2]string{k, cfg.Params[k]})
	}

	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		parts = append(parts, kv[0]+"="+quotePostgresValue(kv[1]))
	}
	return strings.Join(parts, " ")
}

func quotePostgresValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func port(cfg config.DatabaseConfig) int {
	if cfg.Port > 0 {
		return cfg.Port
	}
	dialect, _ := DialectFor(cfg.Driver)
	return defaultPorts[dialect.Name]
}

func hostPort(cfg config.DatabaseConfig) string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(port(cfg)))
}
