// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"text/template"
)

// transcriptionPromptTmpl is the prompt sent with each page image. It
// instructs the model to detect the participant identifier and transcribe
// every element on the page as structured JSON.
var transcriptionPromptTmpl = template.Must(template.New("transcription").Parse(`You are an expert at reading scanned handwritten questionnaires.
Analyze this page (page {{.PageNum}}) carefully.

Tasks:
1. Detect the Participant ID: PRIORITIZE a handwritten 'Axxx' code (e.g. 'A001', 'A002') in the top corner if present. If not, use the 'Participant ID' field (numerical like '136513240329'). If none, use 'Unknown'.
2. Extract all headers, questions, options, and selected answers (detect circles, ticks, crosses, or handwritten responses).
3. For scales (e.g. 0-5 tables), detect circled numbers per row/question.
4. Include bilingual text (English and Tagalog) if present.
5. If a new questionnaire starts (e.g. a repeated consent form), note it.

Output **only** valid JSON, no extra text:
{
  "participant_id": "detected ID like A001",
  "elements": [
    {
      "element_type": "Header" or "Question" or "Section" or "Table",
      "page_number": {{.PageNum}},
      "question_number": "1" or "N/A",
      "question_text": "full question or header text (include English and Tagalog)",
      "options": "comma-separated options or N/A",
      "selected_answer": "detected answer (e.g. 'Yes' circled, '3' circled, handwritten text)",
      "notes": "any extra text, confidence, or unclear parts"
    }
  ]
}
Be extremely precise with handwriting and visual marks (circles around numbers, ticks in boxes).`))

// renderPrompt executes the transcription prompt template for one page.
func renderPrompt(pageNum int) (string, error) {
	var buf bytes.Buffer
	if err := transcriptionPromptTmpl.Execute(&buf, struct{ PageNum int }{PageNum: pageNum}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
