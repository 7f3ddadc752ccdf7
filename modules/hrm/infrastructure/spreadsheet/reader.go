package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

const MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	ErrUnsupportedFile = errors.New("unsupported spreadsheet format")
	ErrNoSheet         = errors.New("workbook has no sheets")
)

// Sheet is the first worksheet of an upload: a header row and data rows in
// file order. Text cells are strings. Numeric xlsx cells, dates included, are
// float64 so a date keeps its serial number.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Read detects the upload type from its content and parses the first sheet.
// The extension only breaks ties for plain-text content.
func Read(r io.Reader, filename string) (Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Sheet{}, errors.Wrap(err, "read upload")
	}
	if len(data) == 0 {
		return Sheet{Name: filename}, nil
	}
	mt := mimetype.Detect(data)
	switch {
	case mt.Is(MimeXLSX):
		return readXLSX(data, filename)
	case mt.Is("application/zip") && strings.EqualFold(filepath.Ext(filename), ".xlsx"):
		return readXLSX(data, filename)
	case isText(mt):
		return readCSV(data, filename)
	default:
		return Sheet{}, errors.Wrapf(ErrUnsupportedFile, "%s (%s)", filename, mt.String())
	}
}

// isText walks the detected type and its parents; csv is detected as
// text/csv only when every record has the same width.
func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}

func readXLSX(data []byte, filename string) (Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Sheet{}, errors.Wrap(err, "open workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Sheet{}, ErrNoSheet
	}
	name := sheets[0]
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return Sheet{}, errors.Wrapf(err, "read sheet %s", name)
	}
	s := fromRecords(name, raw)
	for r, row := range s.Rows {
		for c, cell := range row {
			text, _ := cell.(string)
			if text == "" {
				continue
			}
			// data rows start on sheet row 2
			ref, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return Sheet{}, errors.Wrap(err, "cell reference")
			}
			typ, err := f.GetCellType(name, ref)
			if err != nil {
				return Sheet{}, errors.Wrapf(err, "cell type %s", ref)
			}
			if n, ok := numericCell(typ, text); ok {
				row[c] = n
			}
		}
	}
	return s, nil
}

// numericCell reports the value of a number cell. Cells without an explicit
// type attribute are numbers in the xlsx format.
func numericCell(typ excelize.CellType, raw string) (float64, bool) {
	if typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func readCSV(data []byte, filename string) (Sheet, error) {
	br := stripUTF8BOM(bufio.NewReader(bytes.NewReader(data)))
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = sniffDelimiter(data)

	records, err := r.ReadAll()
	if err != nil {
		return Sheet{}, errors.Wrap(err, "parse csv")
	}
	for _, rec := range records {
		for _, cell := range rec {
			if !utf8.ValidString(cell) {
				return Sheet{}, errors.Wrap(ErrUnsupportedFile, "csv is not valid UTF-8")
			}
		}
	}
	return fromRecords(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)), records), nil
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

// sniffDelimiter picks ';' for locales whose spreadsheet exports use it.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func fromRecords(name string, records [][]string) Sheet {
	s := Sheet{Name: name}
	if len(records) == 0 {
		return s
	}
	headers := records[0]
	last := len(headers)
	for last > 0 && strings.TrimSpace(headers[last-1]) == "" {
		last--
	}
	s.Headers = make([]string, last)
	for i := 0; i < last; i++ {
		s.Headers[i] = strings.TrimSpace(headers[i])
	}
	s.Rows = make([][]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = cell
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}
