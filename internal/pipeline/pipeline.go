// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the end-to-end processing sequence: render pages,
// analyze them one at a time in page order, aggregate by participant, and
// export the workbook.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/formscan/internal/aggregate"
	"github.com/meshintel/formscan/internal/analyze"
	"github.com/meshintel/formscan/internal/archive"
	"github.com/meshintel/formscan/internal/export"
	"github.com/meshintel/formscan/internal/render"
	"github.com/meshintel/formscan/pkg/types"
)

// defaultPrefix names the workbook when no prefix is configured.
const defaultPrefix = "Questionnaire"

// artifactFile is the per-run audit file written under the artifacts dir.
const artifactFile = "pages.yaml"

// Deps holds the pipeline's collaborators. Archive may be nil when
// archiving is disabled.
type Deps struct {
	Renderer render.Renderer
	Analyzer analyze.Analyzer
	Archive  *archive.Store
}

// RunSummary reports the outcome of one processing run.
type RunSummary struct {
	Pages        int
	Degraded     int
	Groups       int
	Elements     int
	WorkbookPath string

	// RunID is the archive run id, or 0 when archiving is disabled.
	RunID int64
}

// Run processes one document. Pages are analyzed strictly one at a time in
// page order because grouping state is sequential and order-dependent. A
// transport or auth failure aborts the run and discards all accumulated
// groups; a malformed per-page response degrades to an empty Unknown
// contribution and the run continues.
func Run(ctx context.Context, pdfPath string, deps Deps, cfg types.PipelineConfig, w io.Writer) (*RunSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	images, err := deps.Renderer.Render(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", pdfPath, err)
	}

	st := aggregate.NewState()
	groups := aggregate.NewGroups()
	analyses := make([]types.PageAnalysis, 0, len(images))
	degraded := 0

	for _, img := range images {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		analysis, err := deps.Analyzer.Analyze(ctx, img.PNG, img.Number)
		if err != nil {
			return nil, err
		}
		analysis.PageNumber = img.Number

		if analysis.Degraded {
			degraded++
			fmt.Fprintf(w, "page %d/%d: response parse failed, continuing as Unknown\n", img.Number, len(images))
		}

		var id string
		st, id = st.Resolve(analysis.ParticipantID)
		groups.Append(id, analysis.Elements)
		analyses = append(analyses, analysis)

		fmt.Fprintf(w, "page %d/%d: %s (%d elements)\n", img.Number, len(images), id, len(analysis.Elements))
	}

	workbookPath, err := writeWorkbook(cfg.Export, groups)
	if err != nil {
		return nil, err
	}

	if cfg.ArtifactsDir != "" {
		if err := writeArtifact(cfg.ArtifactsDir, analyses); err != nil {
			fmt.Fprintf(w, "warning: artifact write failed: %v\n", err)
		}
	}

	summary := &RunSummary{
		Pages:        len(analyses),
		Degraded:     degraded,
		Groups:       groups.Len(),
		Elements:     groups.TotalElements(),
		WorkbookPath: workbookPath,
	}

	if deps.Archive != nil {
		runID, err := deps.Archive.SaveRun(ctx, pdfPath, workbookPath, analyses)
		if err != nil {
			fmt.Fprintf(w, "warning: archive write failed: %v\n", err)
		} else {
			summary.RunID = runID
		}
	}

	fmt.Fprintf(w, "\npages: %d, degraded: %d, groups: %d, elements: %d\n",
		summary.Pages, summary.Degraded, summary.Groups, summary.Elements)
	fmt.Fprintf(w, "workbook: %s\n", workbookPath)

	return summary, nil
}

// Export writes a workbook from an already-analyzed page sequence, used to
// re-export archived runs without calling the analyzer.
func Export(pages []types.PageAnalysis, cfg types.ExportConfig) (string, error) {
	return writeWorkbook(cfg, aggregate.Aggregate(pages))
}

// writeWorkbook resolves the output path and writes the workbook.
func writeWorkbook(cfg types.ExportConfig, groups *aggregate.Groups) (string, error) {
	prefix := cfg.FilenamePrefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}
	path := filepath.Join(cfg.OutputDir, prefix+".xlsx")

	if err := export.WriteWorkbook(path, groups, cfg.Combined); err != nil {
		return "", err
	}
	return path, nil
}

// writeArtifact dumps the raw per-page analyses for audit.
func writeArtifact(dir string, analyses []types.PageAnalysis) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating artifacts directory: %w", err)
	}
	data, err := yaml.Marshal(analyses)
	if err != nil {
		return fmt.Errorf("marshaling analyses: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, artifactFile), data, 0o644)
}
