package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/nodegraph/internal/catalog/domain"
	"github.com/zjrosen/nodegraph/internal/presentation"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local graph catalog",
	Long: `The catalog keeps graph documents in a sqlite database (store.path in
the config), keyed by graph GUID. Importing a GUID that is already stored
replaces it.`,
}

var storeImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import graph documents into the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStoreImport,
}

var storeExportFormat string

var storeExportCmd = &cobra.Command{
	Use:   "export <guid> <file>",
	Short: "Write a stored graph to a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runStoreExport,
}

var (
	storeListPrefix     string
	storeListUnresolved bool
	storeListLimit      int
	storeListAll        bool
	storeListJSON       bool
)

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored graphs",
	Long: `List stored graphs, most recently updated first.

Examples:
  nodegraph store list
  nodegraph store list --unresolved
  nodegraph store list --prefix shader --json`,
	Args: cobra.NoArgs,
	RunE: runStoreList,
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <guid>",
	Short: "Remove a graph from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreDelete,
}

func init() {
	storeExportCmd.Flags().StringVarP(&storeExportFormat, "format", "f", "", "Output format: yaml or json (default: from the file extension)")

	storeListCmd.Flags().StringVar(&storeListPrefix, "prefix", "", "Only graphs whose name starts with this prefix")
	storeListCmd.Flags().BoolVar(&storeListUnresolved, "unresolved", false, "Only graphs with unresolved elements")
	storeListCmd.Flags().IntVar(&storeListLimit, "limit", 0, "Maximum number of graphs (0 = no limit)")
	storeListCmd.Flags().BoolVar(&storeListAll, "all", false, "Include deleted graphs")
	storeListCmd.Flags().BoolVar(&storeListJSON, "json", false, "Print the list as JSON")

	storeCmd.AddCommand(storeImportCmd, storeExportCmd, storeListCmd, storeDeleteCmd)
	rootCmd.AddCommand(storeCmd)
}

func runStoreImport(cmd *cobra.Command, args []string) error {
	svc, closeCatalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer closeCatalog()

	for _, path := range args {
		g, err := loadGraph(cmd.Context(), path)
		if err != nil {
			return err
		}
		stored, err := svc.Import(cmd.Context(), g)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d unresolved)\n", stored.GUID(), stored.Name(), stored.Stats().Placeholders)
	}
	return nil
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, err := parseFormatFlag(storeExportFormat)
	if err != nil {
		return err
	}
	svc, closeCatalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer closeCatalog()

	if err := svc.Export(cmd.Context(), args[0], args[1], format); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], args[1])
	return nil
}

func runStoreList(cmd *cobra.Command, _ []string) error {
	if storeListLimit < 0 {
		return fmt.Errorf("--limit must be >= 0, got %d", storeListLimit)
	}
	svc, closeCatalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer closeCatalog()

	list, err := svc.List(domain.ListFilter{
		NamePrefix:     storeListPrefix,
		OnlyUnresolved: storeListUnresolved,
		Limit:          storeListLimit,
		IncludeDeleted: storeListAll,
	})
	if err != nil {
		return err
	}

	formatter := presentation.NewFormatter(cmd.OutOrStdout())
	dtos := presentation.FromStoredGraphs(list)
	if storeListJSON {
		return formatter.FormatStoredGraphs(dtos)
	}
	return formatter.RenderStoredGraphs(dtos)
}

func runStoreDelete(cmd *cobra.Command, args []string) error {
	svc, closeCatalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer closeCatalog()

	if err := svc.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}
