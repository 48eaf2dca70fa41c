// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "formscan/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// Provider identifies the vision API vendor.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderXAI    Provider = "xai"
	ProviderAzure  Provider = "azure"
)

// AnalysisConfig holds settings for the page analysis stage.
type AnalysisConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the API vendor: openai, xai, or azure.
	Provider Provider `json:"provider" yaml:"provider"`

	// BaseURL is the API endpoint (e.g. "https://api.x.ai/v1" for xAI,
	// the resource endpoint for Azure).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the vision model identifier (e.g. "gpt-4o", "grok-4").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Deployment is the Azure deployment name. Ignored for other providers.
	Deployment string `json:"deployment,omitempty" yaml:"deployment,omitempty"`

	// APIVersion is the Azure API version. Ignored for other providers.
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`

	// MaxTokens caps the completion length per page (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature is the sampling temperature (default 0.1).
	Temperature float32 `json:"temperature" yaml:"temperature"`
}

// Validate rejects settings that would make a run meaningless. It runs
// before any page is rendered or analyzed.
func (c AnalysisConfig) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0, 2], got %g", c.Temperature)
	}
	switch c.Provider {
	case ProviderOpenAI, ProviderXAI, ProviderAzure:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Provider == ProviderAzure && (c.BaseURL == "" || c.Deployment == "" || c.APIVersion == "") {
		return fmt.Errorf("azure provider requires base_url, deployment, and api_version")
	}
	return nil
}

// RenderConfig holds settings for the page rendering stage.
type RenderConfig struct {
	// DPI is the raster resolution for page images (default 150).
	DPI int `json:"dpi" yaml:"dpi"`
}

// Validate rejects non-positive resolutions before the run starts.
func (c RenderConfig) Validate() error {
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", c.DPI)
	}
	return nil
}

// ExportConfig holds settings for the workbook export stage.
type ExportConfig struct {
	// OutputDir is the directory the workbook is written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// FilenamePrefix names the workbook file (default "Questionnaire").
	FilenamePrefix string `json:"filename_prefix" yaml:"filename_prefix"`

	// Combined selects the single-sheet layout instead of one sheet per
	// participant.
	Combined bool `json:"combined" yaml:"combined"`
}

// ArchiveConfig holds settings for the local run archive.
type ArchiveConfig struct {
	// Dir is the directory holding the archive database. Empty disables
	// archiving.
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all stage configurations for one processing run.
type PipelineConfig struct {
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Render   RenderConfig   `json:"render" yaml:"render"`
	Export   ExportConfig   `json:"export" yaml:"export"`
	Archive  ArchiveConfig  `json:"archive" yaml:"archive"`

	// ArtifactsDir, when set, receives a pages.yaml audit file with the raw
	// per-page analyses.
	ArtifactsDir string `json:"artifacts_dir,omitempty" yaml:"artifacts_dir,omitempty"`
}

// Validate checks every stage's settings before the run starts.
func (c PipelineConfig) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	return c.Render.Validate()
}
