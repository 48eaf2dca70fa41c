// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze sends page images to a vision-capable chat API and parses
// the structured transcription it returns.
package analyze

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/meshintel/formscan/pkg/types"
)

// Analyzer abstracts the vision API so the pipeline can be tested with a
// deterministic stub instead of a live network dependency.
type Analyzer interface {
	// Analyze transcribes one page image (PNG bytes). A transport or auth
	// failure returns an error and aborts the run; a malformed response is
	// degraded to an empty Unknown result instead.
	Analyze(ctx context.Context, png []byte, pageNum int) (types.PageAnalysis, error)
}

// pageResponse is the JSON shape the model is instructed to return.
type pageResponse struct {
	ParticipantID string            `json:"participant_id"`
	Elements      []responseElement `json:"elements"`
}

// responseElement is a single element as returned by the model.
type responseElement struct {
	ElementType    string `json:"element_type"`
	PageNumber     int    `json:"page_number"`
	QuestionNumber string `json:"question_number"`
	QuestionText   string `json:"question_text"`
	Options        string `json:"options"`
	SelectedAnswer string `json:"selected_answer"`
	Notes          string `json:"notes"`
}

// stripFences removes a Markdown code fence the model sometimes wraps its
// JSON in, with or without a language tag.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// parseResponse converts raw model output into a PageAnalysis. Malformed
// JSON yields a degraded ("Unknown", no elements) result rather than an
// error, so a single bad page never aborts the run.
func parseResponse(content string, pageNum int) types.PageAnalysis {
	degraded := types.PageAnalysis{
		PageNumber:    pageNum,
		ParticipantID: types.UnknownID,
		Degraded:      true,
	}

	var resp pageResponse
	if err := json.Unmarshal([]byte(stripFences(content)), &resp); err != nil {
		return degraded
	}

	id := strings.TrimSpace(resp.ParticipantID)
	if id == "" {
		id = types.UnknownID
	}

	result := types.PageAnalysis{
		PageNumber:    pageNum,
		ParticipantID: id,
	}
	for _, e := range resp.Elements {
		result.Elements = append(result.Elements, convertElement(e, pageNum))
	}
	return result
}

// convertElement normalizes one model element: missing page numbers fall
// back to the page being analyzed, and optional fields default to "N/A" as
// the prompt contract specifies.
func convertElement(e responseElement, pageNum int) types.Element {
	pageNumber := e.PageNumber
	if pageNumber <= 0 {
		pageNumber = pageNum
	}
	return types.Element{
		ElementType:    types.ElementType(e.ElementType),
		PageNumber:     pageNumber,
		QuestionNumber: orNA(e.QuestionNumber),
		QuestionText:   e.QuestionText,
		Options:        orNA(e.Options),
		SelectedAnswer: e.SelectedAnswer,
		Notes:          e.Notes,
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
