package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// WriteXLSX saves every report section as its own worksheet. Placeholder
// sections keep their marker and message so suppressed or failed sections
// stay visible.
func WriteXLSX(report domain.Report, path string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if len(report.Sections) == 0 {
		return fmt.Errorf("report %q has no sections", report.Title)
	}

	for i, section := range report.Sections {
		name := sheetName(i+1, section.Title)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}

		if err := writeSection(f, name, section); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSection(f *excelize.File, sheet string, section domain.ReportSection) error {
	set := func(col, row int, value any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, value)
	}

	if err := set(1, 1, section.Title); err != nil {
		return fmt.Errorf("write title: %w", err)
	}

	if section.Placeholder != nil {
		if err := set(1, 3, section.Placeholder.Marker); err != nil {
			return err
		}
		return set(2, 3, section.Placeholder.Message)
	}

	for c, column := range section.Columns {
		if err := set(c+1, 3, column); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for r, row := range section.Rows {
		if err := set(1, r+4, row.Label); err != nil {
			return fmt.Errorf("write row label: %w", err)
		}
		for c, v := range row.Values {
			if err := set(c+2, r+4, v); err != nil {
				return fmt.Errorf("write value: %w", err)
			}
		}
	}
	return nil
}

func sheetName(index int, title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, title)

	name := strconv.Itoa(index) + " " + cleaned
	if runes := []rune(name); len(runes) > maxSheetName {
		name = strings.TrimSpace(string(runes[:maxSheetName]))
	}
	return name
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
