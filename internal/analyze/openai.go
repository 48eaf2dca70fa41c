// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/meshintel/formscan/pkg/types"
)

// VisionAnalyzer calls an OpenAI-compatible chat completion API with a page
// image attached. xAI exposes the same wire format behind a different base
// URL; Azure differs only in client configuration.
type VisionAnalyzer struct {
	client *openai.Client
	cfg    types.AnalysisConfig
}

// NewVisionAnalyzer builds an analyzer for the configured provider.
// httpClient may be nil, in which case the library default is used.
func NewVisionAnalyzer(cfg types.AnalysisConfig, httpClient *http.Client) (*VisionAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing API key for provider %q", cfg.Provider)
	}

	var clientCfg openai.ClientConfig
	switch cfg.Provider {
	case types.ProviderAzure:
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
		deployment := cfg.Deployment
		clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
	case types.ProviderOpenAI, types.ProviderXAI:
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}

	return &VisionAnalyzer{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

// Analyze sends the page image with the transcription prompt and parses the
// model's JSON reply. API errors are returned as-is; unparseable replies
// degrade to an empty Unknown result.
func (a *VisionAnalyzer) Analyze(ctx context.Context, png []byte, pageNum int) (types.PageAnalysis, error) {
	prompt, err := renderPrompt(pageNum)
	if err != nil {
		return types.PageAnalysis{}, fmt.Errorf("rendering prompt: %w", err)
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return types.PageAnalysis{}, fmt.Errorf("analyzing page %d: %w", pageNum, err)
	}
	if len(resp.Choices) == 0 {
		return types.PageAnalysis{}, fmt.Errorf("analyzing page %d: empty response", pageNum)
	}

	return parseResponse(resp.Choices[0].Message.Content, pageNum), nil
}
