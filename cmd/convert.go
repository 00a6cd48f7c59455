package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/nodegraph/internal/document"
	"github.com/zjrosen/nodegraph/internal/tracing"
)

var convertFormat string

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a graph document between YAML and JSON",
	Long: `Read a graph document and write it in another format. The document is
converted record by record without being decoded, so elements this build does
not know survive unchanged.

Examples:
  nodegraph convert graph.yaml graph.json
  nodegraph convert graph.json out.txt --format yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "", "Output format: yaml or json (default: from the output extension)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) (err error) {
	in, out := args[0], args[1]
	format, err := parseFormatFlag(convertFormat)
	if err != nil {
		return err
	}
	if format == "" {
		format = document.FormatFromPath(out)
	}

	_, span := tracing.Start(cmd.Context(), tracing.SpanPrefixCommand+"convert",
		attribute.String(tracing.AttrDocumentPath, in),
		attribute.String(tracing.AttrDocumentFormat, string(format)),
	)
	defer func() { tracing.End(span, err) }()

	doc, err := document.ReadFile(in)
	if err != nil {
		return err
	}
	if err := document.WriteFile(out, doc, format); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", in, out, format)
	return nil
}
