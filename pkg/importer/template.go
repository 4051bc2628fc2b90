package importer

import (
	"github.com/xuri/excelize/v2"

	"github.com/raids-lab/buildtracker/dao/model"
)

const templateSheet = "Items"

// Template builds the upload template: the header row on the first sheet and the
// accepted choice values on a second one.
func Template() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return nil, err
	}

	// 表头样式: 加粗
	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(templateSheet, "A1", &header); err != nil {
		return nil, err
	}
	last, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetCellStyle(templateSheet, "A1", last+"1", boldStyle); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(templateSheet, "A", last, 18); err != nil {
		return nil, err
	}

	if err := writeChoices(f, boldStyle); err != nil {
		return nil, err
	}
	return f, nil
}

func writeChoices(f *excelize.File, headerStyle int) error {
	const sheet = "Choices"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	choices := []struct {
		column string
		values []string
	}{
		{"flavour", toStrings(model.Flavours)},
		{"bfs", toStrings(model.BFSValues)},
		{"t_shirt_size", toStrings(model.TShirtSizes)},
		{"hardware", toStrings(model.HardwareValues)},
		{"status", toStrings(model.ItemStatuses)},
		{"dates", []string{"dd/mm/yyyy"}},
	}
	for i, choice := range choices {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetCellValue(sheet, col+"1", choice.column); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, col+"1", col+"1", headerStyle); err != nil {
			return err
		}
		for j, v := range choice.values {
			cell, _ := excelize.CoordinatesToCellName(i+1, j+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
