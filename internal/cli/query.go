package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/eager"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/querymodel"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	DBPath   string
	TraceIDs eager.TraceIDGenerator // defaults to UUIDv7
}

// QueryResult holds the rows a query returned.
type QueryResult struct {
	Entity   string   `json:"entity"`
	Includes []string `json:"includes,omitempty"`
	Count    int      `json:"count"`
	Rows     []any    `json:"rows"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return newQueryCommand(&QueryOptions{RootOptions: rootOpts, TraceIDs: eager.UUIDv7Generator{}})
}

func newQueryCommand(opts *QueryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <schema-dir> <query.yaml>",
		Short: "Run a query file against a SQLite database",
		Long: `Translate a YAML query model, run it against a SQLite database and
print the result rows.

Queries that select whole entities are materialized through the mapping
schema and have their include paths eager-loaded, one round trip per
hop. Projections and aggregates are printed as plain rows.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// staticTrace hands the resolver the trace id already chosen for the
// response.
type staticTrace string

func (s staticTrace) Generate() string { return string(s) }

func runQuery(opts *QueryOptions, schemaDir, queryPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.DBPath); err != nil {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.DBPath))
	}

	reg, err := loadRegistry(formatter, schemaDir)
	if err != nil {
		return err
	}

	model, sel, err := translateQuery(formatter, opts.RootOptions, reg, queryPath)
	if err != nil {
		return err
	}

	logger := opts.Logger(formatter.GetErrWriter())
	st, err := store.Open(opts.DBPath, store.WithMapping(reg), store.WithLogger(logger))
	if err != nil {
		return outputCommandError(formatter, ErrCodeExecute, fmt.Sprintf("opening database: %v", err))
	}
	defer st.Close()

	traceID := opts.TraceIDs.Generate()
	ctx := cmd.Context()
	result := QueryResult{Entity: model.MainFrom.ItemType.Name, Includes: sel.IncludePaths}

	if entityShaped(model, sel) {
		items, err := st.Load(ctx, sel, result.Entity)
		if err != nil {
			return outputQueryError(formatter, ErrCodeExecute, "query failed", err)
		}
		resolver := eager.NewResolver(reg, reg, st,
			eager.WithLogger(logger),
			eager.WithTraceIDGenerator(staticTrace(traceID)))
		if err := resolver.Resolve(ctx, sel, result.Entity, items, sel.IncludePaths); err != nil {
			return outputQueryError(formatter, ErrCodeInclude, "include failed", err)
		}
		result.Rows = items
	} else {
		rows, err := st.Query(ctx, sel)
		if err != nil {
			return outputQueryError(formatter, ErrCodeExecute, "query failed", err)
		}
		result.Rows = make([]any, len(rows))
		for i, r := range rows {
			result.Rows[i] = r
		}
	}
	result.Count = len(result.Rows)

	return outputQuerySuccess(formatter, &result, traceID)
}

// entityShaped reports whether sel returns whole rows of the main entity,
// which can be materialized and have includes attached.
func entityShaped(model *querymodel.QueryModel, sel *queryir.Select) bool {
	if !model.SelectsSource() || sel.IsAny || sel.IsAll {
		return false
	}
	for _, f := range sel.SourceFields {
		if _, ok := f.(*queryir.Column); !ok {
			return false
		}
	}
	return true
}

func outputQuerySuccess(formatter *OutputFormatter, result *QueryResult, traceID string) error {
	if formatter.Format == "json" {
		return formatter.SuccessWithTrace(result, traceID)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d row(s) from %s\n\n", result.Count, result.Entity)
	for _, row := range result.Rows {
		line, err := compactJSON(row)
		if err != nil {
			return err
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	formatter.VerboseLog("trace_id: %s", traceID)
	return nil
}

func compactJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
