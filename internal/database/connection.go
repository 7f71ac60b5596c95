package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// ExecScript runs each semicolon-terminated statement of script in order
// and stops at the first failure. Lines starting with "--" are skipped.
func (db *DB) ExecScript(ctx context.Context, script string) error {
	statements := splitStatements(script)
	for i, stmt := range statements {
		log.Trace().Int("statement", i+1).Str("query", stmt).Msg("Executing script statement")
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("script statement %d failed: %w", i+1, err)
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder

	for line := range strings.SplitSeq(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != "" && stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}

	return statements
}
