package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/nodegraph/internal/document"
	"github.com/zjrosen/nodegraph/internal/presentation"
	"github.com/zjrosen/nodegraph/internal/tracing"
)

var diffContext int

var diffCmd = &cobra.Command{
	Use:   "diff <a> <b>",
	Short: "Show the differences between two graph documents",
	Long: `Load two graph documents, normalize both to YAML and print a line diff.
Documents in different formats compare equal when they describe the same graph.

Examples:
  nodegraph diff before.yaml after.yaml
  nodegraph diff graph.yaml graph.json --context 1`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().IntVarP(&diffContext, "context", "C", 3, "Unchanged lines shown around each change")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) (err error) {
	ctx, span := tracing.Start(cmd.Context(), tracing.SpanPrefixCommand+"diff",
		attribute.String(tracing.AttrDocumentPath, args[0]),
	)
	defer func() { tracing.End(span, err) }()

	before, err := normalizedText(ctx, args[0])
	if err != nil {
		return err
	}
	after, err := normalizedText(ctx, args[1])
	if err != nil {
		return err
	}

	lines := presentation.DiffLines(before, after)
	if !presentation.HasChanges(lines) {
		fmt.Fprintln(cmd.OutOrStdout(), "no differences")
		return nil
	}
	return presentation.NewFormatter(cmd.OutOrStdout()).RenderDiff(lines, diffContext)
}

// normalizedText loads path and re-encodes it as YAML, so formatting and
// format differences do not show up in the diff.
func normalizedText(ctx context.Context, path string) (string, error) {
	g, err := loadGraph(ctx, path)
	if err != nil {
		return "", err
	}
	doc, err := document.Encode(ctx, g)
	if err != nil {
		return "", err
	}
	data, err := document.Marshal(doc, document.FormatYAML)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
