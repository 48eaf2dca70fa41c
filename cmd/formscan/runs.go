// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/formscan/internal/archive"
	"github.com/meshintel/formscan/internal/pipeline"
	"github.com/meshintel/formscan/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and re-export archived processing runs",
	Long: `Runs manages the local archive of completed processing runs. Archived
runs hold every page's analysis, so a workbook can be re-exported in
either layout without calling the API again.`,
}

// --- list subcommand ---

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs",
	RunE:  runRunsList,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	fmt.Printf("%-6s  %-20s  %-30s  %6s  %8s  %8s\n",
		"ID", "Created", "Source", "Pages", "Degraded", "Elements")
	for _, r := range runs {
		source := r.SourcePDF
		if len(source) > 30 {
			source = "..." + source[len(source)-27:]
		}
		fmt.Printf("%-6d  %-20s  %-30s  %6d  %8d  %8d\n",
			r.ID, r.CreatedAt.Format(time.DateTime), source, r.Pages, r.Degraded, r.Elements)
	}
	return nil
}

// --- export subcommand ---

var runsExportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Re-export a workbook from an archived run",
	Long: `Export re-aggregates an archived run's pages and writes a fresh
workbook. The layout flags are independent of the original run, so a
per-participant run can be re-exported combined and vice versa.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsExport,
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	pages, err := store.LoadPages(context.Background(), runID)
	if err != nil {
		return err
	}

	combined, _ := cmd.Flags().GetBool("combined")
	outputDir, _ := cmd.Flags().GetString("output")
	prefix, _ := cmd.Flags().GetString("prefix")

	path, err := pipeline.Export(pages, types.ExportConfig{
		OutputDir:      outputDir,
		FilenamePrefix: prefix,
		Combined:       combined,
	})
	if err != nil {
		return err
	}
	fmt.Printf("workbook: %s\n", path)
	return nil
}

// openArchive opens the archive store from the shared --archive-dir flag.
func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	dir, _ := cmd.Flags().GetString("archive-dir")
	return archive.NewStore(types.ArchiveConfig{Dir: dir})
}

func init() {
	runsCmd.PersistentFlags().String("archive-dir", "archive", "directory for the run archive database")

	runsExportCmd.Flags().String("output", "output", "directory for the workbook")
	runsExportCmd.Flags().String("prefix", "", "workbook filename prefix (default Questionnaire)")
	runsExportCmd.Flags().Bool("combined", false, "combine all participants in one sheet")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsExportCmd)
	rootCmd.AddCommand(runsCmd)
}
