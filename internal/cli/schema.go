package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/compiler"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Output string // output file path
}

// EntitySummary describes one mapped entity.
type EntitySummary struct {
	Name       string            `json:"name"`
	Table      string            `json:"table"`
	PrimaryKey string            `json:"primary_key"`
	Properties []PropertySummary `json:"properties"`
}

// PropertySummary describes one mapped property.
type PropertySummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Type    string `json:"type,omitempty"`
	Column  string `json:"column,omitempty"`
	Related string `json:"related,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema <schema-dir>",
		Short: "Compile and validate a CUE mapping schema",
		Long: `Compile the CUE entity mappings in a directory, validate them against
each other and print the resolved tables, columns and relationships.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the resolved mapping as JSON to this file")

	return cmd
}

func runSchema(opts *SchemaOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	result, loadErrors := LoadSchema(dir, LoadModeCollectAll)
	if result == nil && len(loadErrors) > 0 {
		code, message := parseLoadError(loadErrors[0])
		return outputCommandError(formatter, code, message)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)
	for _, e := range result.Entities {
		formatter.VerboseLog("Compiled entity: %s", e.Name)
	}

	if len(loadErrors) > 0 {
		return outputSchemaErrors(formatter, loadErrors)
	}

	summaries, err := summarize(result.Registry)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}

	if opts.Output != "" {
		if err := writeJSONFile(summaries, opts.Output); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputSchemaSuccess(formatter, summaries, opts.Output)
}

// summarize resolves every entity through the registry, so the summary
// shows defaulted tables, columns and foreign keys.
func summarize(reg *mapping.Registry) ([]EntitySummary, error) {
	names := reg.Entities()
	out := make([]EntitySummary, 0, len(names))
	for _, name := range names {
		table, err := reg.TableName(name)
		if err != nil {
			return nil, err
		}
		pk, err := reg.PrimaryKeyColumnName(name)
		if err != nil {
			return nil, err
		}
		props, err := reg.Properties(name)
		if err != nil {
			return nil, err
		}
		summary := EntitySummary{Name: name, Table: table, PrimaryKey: pk}
		for _, p := range props {
			ps := PropertySummary{Name: p.Name, Kind: p.Kind.String(), Related: p.Related}
			switch p.Kind {
			case mapping.Scalar:
				ps.Type = p.Type.String()
				if ps.Column, err = reg.ColumnName(name, p.Name); err != nil {
					return nil, err
				}
			default:
				if ps.Column, err = reg.ForeignKeyColumnName(name, p.Name); err != nil {
					return nil, err
				}
			}
			summary.Properties = append(summary.Properties, ps)
		}
		out = append(out, summary)
	}
	return out, nil
}

func outputSchemaSuccess(formatter *OutputFormatter, summaries []EntitySummary, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d entit(ies)\n\n", len(summaries))
	for _, e := range summaries {
		fmt.Fprintf(formatter.Writer, "%s (table %s, key %s)\n", e.Name, e.Table, e.PrimaryKey)
		for _, p := range e.Properties {
			switch p.Kind {
			case mapping.Scalar.String():
				fmt.Fprintf(formatter.Writer, "  %s: %s → %s\n", p.Name, p.Type, p.Column)
			default:
				fmt.Fprintf(formatter.Writer, "  %s: %s of %s via %s\n", p.Name, p.Kind, p.Related, p.Column)
			}
		}
		fmt.Fprintln(formatter.Writer)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote mapping to %s\n", outputFile)
	}
	return nil
}

// outputCommandError outputs a single command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputQueryError outputs a query failure (exit code 1).
func outputQueryError(formatter *OutputFormatter, code, message string, err error) error {
	_ = formatter.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(ExitFailure, fmt.Sprintf("%s: %s", code, message), err)
}

// outputSchemaErrors outputs every schema error found.
func outputSchemaErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("schema has %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Schema invalid")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseLoadError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("schema has %d error(s)", len(errs)))
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field), compileErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeJSONFile writes v as indented JSON.
func writeJSONFile(v any, filename string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
