package contest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const minColumns = 3

// Load reads contest rows from a .csv or .xlsx export. The first row is a
// header and is skipped. Columns are points, handle, account.
func Load(path string) ([]Row, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return ReadWorkbook(path)
	default:
		return nil, fmt.Errorf("unsupported input type %q", ext)
	}
}

// ReadCSV reads contest rows from CSV. CRLF and LF line endings are accepted
// and blank lines are skipped.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []Row
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if header {
			header = false
			continue
		}
		line, _ := reader.FieldPos(0)
		row, err := toRow(line, record)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoCandidates
	}
	return rows, nil
}

// ReadWorkbook reads contest rows from the first sheet of an .xlsx file.
func ReadWorkbook(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	var rows []Row
	for i, record := range records {
		if i == 0 || isBlank(record) {
			continue
		}
		row, err := toRow(i+1, record)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoCandidates
	}
	return rows, nil
}

func toRow(line int, record []string) (Row, error) {
	if len(record) < minColumns {
		return Row{}, fmt.Errorf("line %d: expected %d columns, got %d", line, minColumns, len(record))
	}
	return Row{
		Line:    line,
		Points:  record[0],
		Handle:  record[1],
		Account: record[2],
	}, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
