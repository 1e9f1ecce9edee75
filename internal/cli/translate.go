package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/querymodel"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/querysql"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/translate"
)

// TranslateResult describes a translated query and its SQL rendering.
type TranslateResult struct {
	Entity     string   `json:"entity"`
	Fields     int      `json:"fields"`
	Joins      int      `json:"joins"`
	Conditions int      `json:"conditions"`
	Includes   []string `json:"includes,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	SQL        string   `json:"sql"`
	Params     []any    `json:"params"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate <schema-dir> <query.yaml>",
		Short: "Translate a query file to SQL",
		Long: `Translate a YAML query model into a Select statement against the CUE
mapping schema and print the SQLite SQL it renders to.

Include paths are listed but not resolved; use the query command to run
them against a database.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runTranslate(opts *RootOptions, schemaDir, queryPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	reg, err := loadRegistry(formatter, schemaDir)
	if err != nil {
		return err
	}

	model, sel, err := translateQuery(formatter, opts, reg, queryPath)
	if err != nil {
		return err
	}

	result := TranslateResult{
		Entity:     model.MainFrom.ItemType.Name,
		Fields:     len(sel.SourceFields),
		Joins:      len(sel.SourceJoins),
		Conditions: len(sel.Conditions),
		Includes:   sel.IncludePaths,
	}
	if v := queryir.Validate(sel); !v.IsRenderable {
		result.Warnings = v.Warnings
	}

	result.SQL, result.Params, err = querysql.NewSQLCompiler().Compile(sel)
	if err != nil {
		return outputQueryError(formatter, ErrCodeRender, "rendering failed", err)
	}

	return outputTranslateSuccess(formatter, &result)
}

// loadRegistry loads the schema in dir, reporting any error on formatter.
func loadRegistry(formatter *OutputFormatter, dir string) (*mapping.Registry, error) {
	result, loadErrors := LoadSchema(dir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		code, message := parseLoadError(loadErrors[0])
		return nil, outputCommandError(formatter, code, message)
	}
	formatter.VerboseLog("Loaded %d entit(ies) from %s", len(result.Entities), dir)
	return result.Registry, nil
}

// translateQuery decodes and translates the query file at path.
func translateQuery(formatter *OutputFormatter, opts *RootOptions, reg *mapping.Registry, path string) (*querymodel.QueryModel, *queryir.Select, error) {
	model, err := LoadQuery(path, reg)
	if err != nil {
		code, message := parseLoadError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Code == ErrCodeNotFound {
			return nil, nil, outputCommandError(formatter, code, message)
		}
		return nil, nil, outputQueryError(formatter, code, "invalid query", errors.New(message))
	}

	sel, err := translate.Translate(model, reg, translate.WithLogger(opts.Logger(formatter.GetErrWriter())))
	if err != nil {
		return nil, nil, outputQueryError(formatter, ErrCodeTranslate, "translation failed", err)
	}
	return model, sel, nil
}

func outputTranslateSuccess(formatter *OutputFormatter, result *TranslateResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Translated query on %s\n\n", result.Entity)
	fmt.Fprintf(formatter.Writer, "  fields: %d, joins: %d, conditions: %d\n",
		result.Fields, result.Joins, result.Conditions)
	if len(result.Includes) > 0 {
		fmt.Fprintf(formatter.Writer, "  includes: %s\n", strings.Join(result.Includes, ", "))
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning: %s\n", w)
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintln(formatter.Writer, result.SQL)
	if len(result.Params) > 0 {
		fmt.Fprintf(formatter.Writer, "\nParams: %v\n", result.Params)
	}
	return nil
}
