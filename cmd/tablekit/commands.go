package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saltyorg/tablekit/internal/config"
	"github.com/saltyorg/tablekit/internal/database"
	"github.com/saltyorg/tablekit/internal/table"
)

func newCreateCmd() *cobra.Command {
	var set []string

	cmd := &cobra.Command{
		Use:   "create TABLE --set column=value...",
		Short: "Insert a row and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(set)
			if err != nil {
				return err
			}
			return withTable(cmd.Context(), args[0], func(ctx context.Context, t *table.Table) error {
				row, err := t.Create(ctx, values)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), row)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&set, "set", "s", nil, "Column value as column=value (repeatable)")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func newReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read TABLE ID",
		Short: "Print the row with the given key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return withTable(cmd.Context(), args[0], func(ctx context.Context, t *table.Table) error {
				row, err := t.Read(ctx, id)
				if err != nil {
					return err
				}
				if row == nil {
					return notFound(t, t.Schema().Key(), id)
				}
				return printJSON(cmd.OutOrStdout(), row)
			})
		},
	}
}

func newFindCmd() *cobra.Command {
	var where string

	cmd := &cobra.Command{
		Use:   "find TABLE --where column=value",
		Short: "Print the first row matching a predicate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			column, value, err := parseAssignment(where)
			if err != nil {
				return err
			}
			return withTable(cmd.Context(), args[0], func(ctx context.Context, t *table.Table) error {
				row, err := t.ReadWhere(ctx, column, value)
				if err != nil {
					return err
				}
				if row == nil {
					return notFound(t, column, value)
				}
				return printJSON(cmd.OutOrStdout(), row)
			})
		},
	}
	cmd.Flags().StringVarP(&where, "where", "w", "", "Predicate as column=value")
	_ = cmd.MarkFlagRequired("where")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list TABLE",
		Short: "Print every row of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTable(cmd.Context(), args[0], func(ctx context.Context, t *table.Table) error {
				rows, err := t.ReadAll(ctx)
				if err != nil {
					return err
				}
				if rows == nil {
					rows = []table.Row{}
				}
				return printJSON(cmd.OutOrStdout(), rows)
			})
		},
	}
}

func newUpdateCmd() *cobra.Command {
	var set []string

	cmd := &cobra.Command{
		Use:   "update TABLE ID --set column=value...",
		Short: "Update the row with the given key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			values, err := parseAssignments(set)
			if err != nil {
				return err
			}
			return withTable(cmd.Context(), args[0], func(ctx context.Context, t *table.Table) error {
				matched, err := t.Update(ctx, id, values)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result{Matched: matched})
			})
		},
	}
	cmd.Flags().StringArrayVarP(&set, "set", "s", nil, "Column value as column=value (repeatable)")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func newUpdateWhereCmd() *cobra.Command {
	var where string
	var set []string

	cmd := &cobra.Command{
		Use:   "update-where TABLE --where column=value --set column=value...",
		Short: "Update every row matching a predicate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			column, match, err := parseAssignment(where)
			if err != nil {
				return err
			}
			values, err := parseAssignments(set)
			if err != nil {
				return err
			}
			return withTable(cmd.Context(), args[0], func(ctx context.Context, t *table.Table) error {
				matched, err := t.UpdateWhere(ctx, column, match, values)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result{Matched: matched})
			})
		},
	}
	cmd.Flags().StringVarP(&where, "where", "w", "", "Predicate as column=value")
	cmd.Flags().StringArrayVarP(&set, "set", "s", nil, "Column value as column=value (repeatable)")
	_ = cmd.MarkFlagRequired("where")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TABLE ID",
		Short: "Delete the row with the given key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return withTable(cmd.Context(), args[0], func(ctx context.Context, t *table.Table) error {
				matched, err := t.Delete(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result{Matched: matched})
			})
		},
	}
}

func newDeleteWhereCmd() *cobra.Command {
	var where string

	cmd := &cobra.Command{
		Use:   "delete-where TABLE --where column=value",
		Short: "Delete every row matching a predicate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			column, match, err := parseAssignment(where)
			if err != nil {
				return err
			}
			return withTable(cmd.Context(), args[0], func(ctx context.Context, t *table.Table) error {
				matched, err := t.DeleteWhere(ctx, column, match)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result{Matched: matched})
			})
		},
	}
	cmd.Flags().StringVarP(&where, "where", "w", "", "Predicate as column=value")
	_ = cmd.MarkFlagRequired("where")
	return cmd
}

func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec FILE",
		Short: "Run a SQL script (use - for stdin)",
		Long: `Run each semicolon-terminated statement of a SQL script in order, for
example to create the declared tables. Execution stops at the first failure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return withDB(cmd.Context(), func(ctx context.Context, db *database.DB) error {
				if err := db.ExecScript(ctx, script); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "executed %s\n", args[0])
				return nil
			})
		},
	}
}

func readScript(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}

type result struct {
	Matched bool `json:"matched"`
}

// withTable binds the declared table on a fresh connection and runs fn.
func withTable(ctx context.Context, name string, fn func(context.Context, *table.Table) error) error {
	tc, ok := cfg.Table(name)
	if !ok {
		return fmt.Errorf("table %q is not declared in the configuration", name)
	}

	schema, err := table.SchemaFromConfig(tc)
	if err != nil {
		return fmt.Errorf("invalid schema for table %q: %w", name, err)
	}

	return withDB(ctx, func(ctx context.Context, db *database.DB) error {
		t, err := table.New(db, name, schema)
		if err != nil {
			return err
		}
		return fn(ctx, t)
	})
}

// withDB opens the connection and runs fn under the statement timeout.
// The connection is closed afterwards.
func withDB(ctx context.Context, fn func(context.Context, *database.DB) error) error {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if timeout := config.GetTimeouts().Statement; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return fn(ctx, db)
}

// parseAssignment splits "column=value". The value is passed through as a
// string and coerced by the column type when bound.
func parseAssignment(s string) (string, any, error) {
	column, value, ok := strings.Cut(s, "=")
	column = strings.TrimSpace(column)
	if !ok || column == "" {
		return "", nil, fmt.Errorf("expected column=value, got %q", s)
	}
	return column, value, nil
}

func parseAssignments(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		column, value, err := parseAssignment(pair)
		if err != nil {
			return nil, err
		}
		if _, dup := values[column]; dup {
			return nil, fmt.Errorf("column %q set more than once", column)
		}
		values[column] = value
	}
	return values, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

func notFound(t *table.Table, column string, value any) error {
	return fmt.Errorf("no row in %s where %s = %v", t.Name(), column, value)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
