package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

type csvCodec struct {
	delimiter rune
}

func (csvCodec) Format() string { return "csv" }

func (c csvCodec) Write(w io.Writer, values map[string]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = c.delimiter
	if err := gocsv.MarshalCSV(Rows(values), gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func (c csvCodec) Read(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = c.delimiter
	var rows []Row
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return fromRows(rows)
}
