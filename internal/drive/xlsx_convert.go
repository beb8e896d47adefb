package drive

import (
	"fmt"
	"io"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/csvcodec"
	"github.com/xuri/excelize/v2"
)

// xlsxToCSV converts the first sheet of a workbook to CSV text. The first row
// is the header, shorter rows are padded to its width and blank rows are skipped.
func xlsxToCSV(r io.Reader) (string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("xlsx has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return "", fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var (
		headers []string
		records [][]string
	)
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return "", fmt.Errorf("failed to read row from sheet %s: %w", sheet, err)
		}
		if blank(record) {
			continue
		}
		if headers == nil {
			headers = record
			continue
		}
		if len(record) < len(headers) {
			record = append(record, make([]string, len(headers)-len(record))...)
		}
		records = append(records, record[:len(headers)])
	}
	if err := rows.Error(); err != nil {
		return "", fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}
	if headers == nil {
		return "", fmt.Errorf("sheet %s is empty", sheet)
	}

	return csvcodec.Serialize(headers, records), nil
}

func blank(record []string) bool {
	for _, v := range record {
		if v != "" {
			return false
		}
	}
	return true
}
