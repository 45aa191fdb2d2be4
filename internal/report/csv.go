package report

import (
	"bytes"
	"encoding/csv"
	"io"
)

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\ufeff"

// WriteCSV renders every section as a title row, a header row and its data
// rows, followed by a blank line.
func WriteCSV(w io.Writer, r Report) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	for _, s := range r.Sections {
		if err := cw.Write([]string{s.Title}); err != nil {
			return err
		}
		if len(s.Headers) > 0 {
			if err := cw.Write(s.Headers); err != nil {
				return err
			}
		}
		for _, row := range s.Rows {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		if err := cw.Write(nil); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV renders r into a byte slice.
func CSV(r Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := WriteCSV(buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
