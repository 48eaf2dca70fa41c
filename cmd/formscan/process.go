// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/formscan/internal/analyze"
	"github.com/meshintel/formscan/internal/archive"
	"github.com/meshintel/formscan/internal/httputil"
	"github.com/meshintel/formscan/internal/pipeline"
	"github.com/meshintel/formscan/internal/render"
	"github.com/meshintel/formscan/internal/secrets"
	"github.com/meshintel/formscan/pkg/types"
)

const (
	defaultTimeout     = 120 * time.Second
	defaultMaxTokens   = 2048
	defaultTemperature = 0.1
	defaultDPI         = 150
	defaultXAIBaseURL  = "https://api.x.ai/v1"
)

var processCmd = &cobra.Command{
	Use:   "process [pdf]",
	Short: "Run the full pipeline on a scanned questionnaire PDF",
	Long: `Process renders every page of the PDF, transcribes each page through the
configured vision model, groups elements by detected participant identifier
(carrying the last identifier forward over Unknown pages), and writes an
Excel workbook. Completed runs are archived locally unless --no-archive
is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().String("provider", "", "API provider: openai, xai, or azure (default xai)")
	processCmd.Flags().String("base-url", "", "API endpoint (default per provider)")
	processCmd.Flags().String("model", "", "vision model identifier (default per provider)")
	processCmd.Flags().String("api-key", "", "API key (default: provider key file in .secrets/)")
	processCmd.Flags().String("deployment", "", "Azure deployment name")
	processCmd.Flags().String("api-version", "", "Azure API version")
	processCmd.Flags().Int("max-tokens", 0, "completion token cap per page (default 2048)")
	processCmd.Flags().Float32("temperature", -1, "sampling temperature (default 0.1)")
	processCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 120s)")
	processCmd.Flags().Int("dpi", 0, "page raster resolution (default 150)")
	processCmd.Flags().String("output", "output", "directory for the workbook")
	processCmd.Flags().String("prefix", "", "workbook filename prefix (default Questionnaire)")
	processCmd.Flags().Bool("combined", false, "combine all participants in one sheet")
	processCmd.Flags().String("artifacts-dir", "", "write per-page analyses to this directory")
	processCmd.Flags().String("archive-dir", "archive", "directory for the run archive database")
	processCmd.Flags().Bool("no-archive", false, "skip archiving the run")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	analyzer, err := analyze.NewVisionAnalyzer(cfg.Analysis, httputil.NewClient(cfg.Analysis.HTTPConfig))
	if err != nil {
		return err
	}

	deps := pipeline.Deps{
		Renderer: render.NewMuPDFRenderer(cfg.Render),
		Analyzer: analyzer,
	}

	if cfg.Archive.Dir != "" {
		store, err := archive.NewStore(cfg.Archive)
		if err != nil {
			return err
		}
		defer store.Close()
		deps.Archive = store
	}

	summary, err := pipeline.Run(context.Background(), args[0], deps, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.RunID != 0 {
		fmt.Printf("archived as run %d\n", summary.RunID)
	}
	return nil
}

// pipelineConfig assembles the run configuration from flags, config file
// values, and provider defaults, in that precedence order.
func pipelineConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	provider := types.Provider(stringSetting(cmd, "provider", "analysis.provider", "xai"))

	analysis := types.AnalysisConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   durationSetting(cmd, "timeout", "analysis.timeout", defaultTimeout),
			UserAgent: httputil.DefaultUserAgent,
		},
		Provider:   provider,
		BaseURL:    stringSetting(cmd, "base-url", "analysis.base_url", defaultBaseURL(provider)),
		Model:      stringSetting(cmd, "model", "analysis.model", defaultModel(provider)),
		Deployment: stringSetting(cmd, "deployment", "analysis.deployment", ""),
		APIVersion: stringSetting(cmd, "api-version", "analysis.api_version", ""),
	}

	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey == "" {
		apiKey = viper.GetString("analysis.api_key")
	}
	analysis.APIKey = secretDefault(secretKey(provider), apiKey)

	analysis.MaxTokens, _ = cmd.Flags().GetInt("max-tokens")
	if analysis.MaxTokens == 0 {
		analysis.MaxTokens = viper.GetInt("analysis.max_tokens")
	}
	if analysis.MaxTokens == 0 {
		analysis.MaxTokens = defaultMaxTokens
	}

	analysis.Temperature, _ = cmd.Flags().GetFloat32("temperature")
	if analysis.Temperature < 0 {
		if viper.IsSet("analysis.temperature") {
			analysis.Temperature = float32(viper.GetFloat64("analysis.temperature"))
		} else {
			analysis.Temperature = defaultTemperature
		}
	}

	dpi, _ := cmd.Flags().GetInt("dpi")
	if dpi == 0 {
		dpi = viper.GetInt("render.dpi")
	}
	if dpi == 0 {
		dpi = defaultDPI
	}

	combined, _ := cmd.Flags().GetBool("combined")
	noArchive, _ := cmd.Flags().GetBool("no-archive")

	cfg := types.PipelineConfig{
		Analysis: analysis,
		Render:   types.RenderConfig{DPI: dpi},
		Export: types.ExportConfig{
			OutputDir:      stringSetting(cmd, "output", "export.output_dir", "output"),
			FilenamePrefix: stringSetting(cmd, "prefix", "export.filename_prefix", ""),
			Combined:       combined || viper.GetBool("export.combined"),
		},
		ArtifactsDir: stringSetting(cmd, "artifacts-dir", "artifacts_dir", ""),
	}
	if !noArchive {
		cfg.Archive.Dir = stringSetting(cmd, "archive-dir", "archive.dir", "archive")
	}
	return cfg, nil
}

// stringSetting resolves a string from flag, then config file, then default.
func stringSetting(cmd *cobra.Command, flag, viperKey, def string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" && cmd.Flags().Changed(flag) {
		return v
	}
	if v := viper.GetString(viperKey); v != "" {
		return v
	}
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return def
}

// durationSetting resolves a duration from flag, then config file, then default.
func durationSetting(cmd *cobra.Command, flag, viperKey string, def time.Duration) time.Duration {
	if v, _ := cmd.Flags().GetDuration(flag); v != 0 {
		return v
	}
	if v := viper.GetDuration(viperKey); v != 0 {
		return v
	}
	return def
}

// defaultBaseURL returns the endpoint used when none is configured.
func defaultBaseURL(p types.Provider) string {
	if p == types.ProviderXAI {
		return defaultXAIBaseURL
	}
	return ""
}

// defaultModel returns the model used when none is configured.
func defaultModel(p types.Provider) string {
	switch p {
	case types.ProviderXAI:
		return "grok-4"
	case types.ProviderOpenAI, types.ProviderAzure:
		return "gpt-4o"
	}
	return ""
}

// secretKey maps a provider to its .secrets/ key file name.
func secretKey(p types.Provider) string {
	switch p {
	case types.ProviderOpenAI:
		return secrets.KeyOpenAI
	case types.ProviderXAI:
		return secrets.KeyXAI
	case types.ProviderAzure:
		return secrets.KeyAzure
	}
	return ""
}
