// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export serializes aggregated participant groups into an Excel
// workbook, either one sheet per participant or a single combined sheet.
package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/meshintel/formscan/internal/aggregate"
	"github.com/meshintel/formscan/pkg/types"
)

// maxSheetName is the xlsx sheet name length limit.
const maxSheetName = 31

// combinedSheet is the sheet name used by the combined layout.
const combinedSheet = "Combined"

// attributeRows is the fixed attribute set exported per element, in row
// order. Options and the participant id column are dropped from both
// layouts; combined mode synthesizes its own participant_id row.
var attributeRows = []string{
	"element_type",
	"page_number",
	"question_number",
	"question_text",
	"selected_answer",
	"notes",
}

// attrValue returns the element attribute for one exported row key.
func attrValue(e types.Element, key string) string {
	switch key {
	case "element_type":
		return string(e.ElementType)
	case "page_number":
		return strconv.Itoa(e.PageNumber)
	case "question_number":
		return e.QuestionNumber
	case "question_text":
		return e.QuestionText
	case "selected_answer":
		return e.SelectedAnswer
	case "notes":
		return e.Notes
	}
	return ""
}

// WriteWorkbook writes the aggregated groups to an xlsx file at path.
// Groups with no elements are skipped in either layout.
func WriteWorkbook(path string, groups *aggregate.Groups, combined bool) error {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)

	var wrote bool
	var err error
	if combined {
		wrote, err = writeCombined(f, groups)
	} else {
		wrote, err = writePerParticipant(f, groups)
	}
	if err != nil {
		return err
	}

	// Drop the default sheet only once real content exists; a workbook
	// needs at least one sheet to be valid.
	if wrote {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("removing default sheet: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

// writePerParticipant emits one transposed sheet per non-empty group:
// column A holds the attribute names, each element occupies one column.
func writePerParticipant(f *excelize.File, groups *aggregate.Groups) (bool, error) {
	wrote := false
	for _, id := range groups.IDs() {
		elems := groups.Elements(id)
		if len(elems) == 0 {
			continue
		}

		name := sheetName(id)
		if _, err := f.NewSheet(name); err != nil {
			return wrote, fmt.Errorf("creating sheet %s: %w", name, err)
		}

		for row, key := range attributeRows {
			if err := setCell(f, name, 1, row+1, key); err != nil {
				return wrote, err
			}
			for col, e := range elems {
				if err := setCell(f, name, col+2, row+1, attrValue(e, key)); err != nil {
					return wrote, err
				}
			}
		}
		wrote = true
	}
	return wrote, nil
}

// writeCombined emits a single sheet: a synthesized participant_id row
// repeating each group's key once per element, followed by the attribute
// rows, with columns concatenated in group-insertion order.
func writeCombined(f *excelize.File, groups *aggregate.Groups) (bool, error) {
	var ids []string
	var elems []types.Element
	for _, id := range groups.IDs() {
		g := groups.Elements(id)
		if len(g) == 0 {
			continue
		}
		for range g {
			ids = append(ids, id)
		}
		elems = append(elems, g...)
	}
	if len(elems) == 0 {
		return false, nil
	}

	if _, err := f.NewSheet(combinedSheet); err != nil {
		return false, fmt.Errorf("creating sheet %s: %w", combinedSheet, err)
	}

	if err := setCell(f, combinedSheet, 1, 1, "participant_id"); err != nil {
		return false, err
	}
	for col, id := range ids {
		if err := setCell(f, combinedSheet, col+2, 1, id); err != nil {
			return false, err
		}
	}

	for row, key := range attributeRows {
		if err := setCell(f, combinedSheet, 1, row+2, key); err != nil {
			return false, err
		}
		for col, e := range elems {
			if err := setCell(f, combinedSheet, col+2, row+2, attrValue(e, key)); err != nil {
				return false, err
			}
		}
	}

	return true, nil
}

// sheetName truncates a participant id to the xlsx sheet name limit.
func sheetName(id string) string {
	if len(id) > maxSheetName {
		return id[:maxSheetName]
	}
	return id
}

// setCell writes one value at 1-based column and row coordinates.
func setCell(f *excelize.File, sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
	}
	return nil
}
