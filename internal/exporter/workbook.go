package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"pushpulse/internal/errors"
	"pushpulse/pkg/contracts/domain"
)

// excelSheetNameLimit is the hard cap Excel places on sheet names.
const excelSheetNameLimit = 31

// WorkbookExporter writes the full set of uploaded tables into one Excel
// workbook, one sheet per source file.
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter.
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{logger: logger.With(slog.String("component", "workbook_exporter"))}
}

// Write streams an xlsx workbook containing every table. Sheets are
// ordered by file name for stable output. Cell values are written as
// stored, so the workbook round-trips exactly what was uploaded.
func (e *WorkbookExporter) Write(w io.Writer, tables map[string]domain.NamedTable) error {
	if len(tables) == 0 {
		return errors.NewExportError("no tables to export", nil)
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range names {
		table := tables[name]
		sheet := sheetName(name, i)

		if i == 0 {
			// Rename the default sheet rather than leaving it empty
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return errors.NewExportError(fmt.Sprintf("failed to name sheet for %s", name), err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return errors.NewExportError(fmt.Sprintf("failed to create sheet for %s", name), err)
			}
		}

		if err := writeSheet(f, sheet, table); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return errors.NewExportError("failed to write workbook", err)
	}

	e.logger.Info("workbook exported", slog.Int("sheet_count", len(names)))
	return nil
}

func writeSheet(f *excelize.File, sheet string, table domain.NamedTable) error {
	header := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.NewExportError(fmt.Sprintf("failed to write header of sheet %s", sheet), err)
	}

	for rowIdx, row := range table.Rows {
		cells := make([]any, len(table.Columns))
		for i, col := range table.Columns {
			cells[i] = row[col]
		}
		addr, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return errors.NewExportError(fmt.Sprintf("failed to address row %d of sheet %s", rowIdx+2, sheet), err)
		}
		if err := f.SetSheetRow(sheet, addr, &cells); err != nil {
			return errors.NewExportError(fmt.Sprintf("failed to write row %d of sheet %s", rowIdx+2, sheet), err)
		}
	}
	return nil
}

// sheetName derives an Excel-safe sheet name from a file name: extension
// stripped, forbidden characters replaced, truncated to the 31-character
// limit. The index suffix disambiguates names that collide after
// truncation.
func sheetName(fileName string, index int) string {
	name := fileName
	if dot := strings.LastIndex(name, "."); dot > 0 {
		name = name[:dot]
	}

	replacer := strings.NewReplacer("[", "_", "]", "_", ":", "_", "*", "_", "?", "_", "/", "_", "\\", "_")
	name = replacer.Replace(name)

	if name == "" {
		name = fmt.Sprintf("sheet%d", index+1)
	}
	if len(name) > excelSheetNameLimit {
		suffix := fmt.Sprintf("~%d", index+1)
		name = name[:excelSheetNameLimit-len(suffix)] + suffix
	}
	return name
}
