package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"memberhub/internal/mapper"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported import format")

// DetectFormat picks the decoder from the file extension, then the content
// type. Anything unrecognized is treated as a workbook.
func DetectFormat(name, contentType string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return "", fmt.Errorf("%w: legacy .xls workbooks, save as .xlsx or .csv", ErrUnsupportedFormat)
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "text/csv", "application/csv", "text/plain":
			return FormatCSV, nil
		}
	}
	return FormatXLSX, nil
}

// Decode reads rows in the given format. The first row holds the headers.
func Decode(r io.Reader, format Format) ([]mapper.Row, error) {
	switch format {
	case FormatCSV:
		return DecodeCSV(r)
	case FormatXLSX:
		return DecodeXLSX(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func DecodeCSV(r io.Reader) ([]mapper.Row, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return toRows(records), nil
}

// DecodeXLSX reads the first sheet of a workbook.
func DecodeXLSX(r io.Reader) ([]mapper.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []mapper.Row{}, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return toRows(records), nil
}

// DecodeBytes is Decode for an in-memory file.
func DecodeBytes(data []byte, format Format) ([]mapper.Row, error) {
	return Decode(bytes.NewReader(data), format)
}

// toRows keys data rows by the header row. Blank rows are dropped but every
// row keeps its data row number; cells without a header are ignored.
func toRows(records [][]string) []mapper.Row {
	rows := []mapper.Row{}
	if len(records) == 0 {
		return rows
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	for n, rec := range records[1:] {
		row := make(mapper.Row, len(header))
		blank := true
		for i, h := range header {
			if h == "" || h == mapper.SourceKey {
				continue
			}
			v := ""
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			if v != "" {
				blank = false
			}
			row[h] = v
		}
		if !blank {
			row.SetSource(n + 1)
			rows = append(rows, row)
		}
	}
	return rows
}
