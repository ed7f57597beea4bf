package punchimport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// maxLegacyRows bounds how many rows are read from a legacy .xls workbook
const maxLegacyRows = 100000

var (
	ErrNoWorksheet    = errors.New("no worksheet found")
	ErrEmptyWorksheet = errors.New("worksheet is empty")
)

// ReadRows returns the cells of the first worksheet. Legacy .xls files go through the BIFF
// reader, everything else is opened as an Office Open XML workbook.
func ReadRows(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, fmt.Errorf("failed to open xls workbook: %w", err)
		}
		if workbook.NumSheets() == 0 {
			return nil, ErrNoWorksheet
		}
		rows := workbook.ReadAllCells(maxLegacyRows)
		if len(rows) == 0 {
			return nil, ErrEmptyWorksheet
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, ErrNoWorksheet
		}

		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read worksheet %s: %w", sheetName, err)
		}
		if len(rows) == 0 {
			return nil, ErrEmptyWorksheet
		}
		return rows, nil
	}
}
