// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ElementType categorizes one extracted unit from a questionnaire page.
type ElementType string

const (
	ElementHeader   ElementType = "Header"
	ElementQuestion ElementType = "Question"
	ElementSection  ElementType = "Section"
	ElementTable    ElementType = "Table"
)

// Element is one extracted field, question, or answer unit from a page.
type Element struct {
	// ElementType categorizes the element: Header, Question, Section, or Table.
	ElementType ElementType `json:"element_type" yaml:"element_type"`

	// PageNumber is the 1-based page the element was extracted from.
	PageNumber int `json:"page_number" yaml:"page_number"`

	// QuestionNumber is the question label as printed on the form, or "N/A".
	QuestionNumber string `json:"question_number" yaml:"question_number"`

	// QuestionText is the full question or header text, including bilingual
	// variants when the form carries them.
	QuestionText string `json:"question_text" yaml:"question_text"`

	// Options is the comma-separated option list as printed, or "N/A".
	Options string `json:"options" yaml:"options"`

	// SelectedAnswer is the detected response: a circled option, a marked
	// scale value, or handwritten text.
	SelectedAnswer string `json:"selected_answer" yaml:"selected_answer"`

	// Notes holds extra text, confidence remarks, or unclear parts.
	Notes string `json:"notes" yaml:"notes"`

	// ParticipantID is the resolved participant this element belongs to.
	// It is assigned during aggregation and never trusted from the analyzer.
	ParticipantID string `json:"participant_id" yaml:"participant_id"`
}

// UnknownID is the sentinel the analyzer returns when no participant
// identifier could be detected on a page.
const UnknownID = "Unknown"

// PageAnalysis is the analyzer's result for a single page.
type PageAnalysis struct {
	// PageNumber is the 1-based page index within the source document.
	PageNumber int `json:"page_number" yaml:"page_number"`

	// ParticipantID is the identifier detected on the page, or UnknownID.
	ParticipantID string `json:"participant_id" yaml:"participant_id"`

	// Elements are the units extracted from the page, in reading order.
	Elements []Element `json:"elements" yaml:"elements"`

	// Degraded is true when the analyzer response could not be parsed and
	// the page was downgraded to an empty Unknown contribution.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}
