package output

import (
	"encoding/csv"
	"io"

	"github.com/dgallion1/tflextract/internal/report"
)

// CSVWriter writes RFC 4180 CSV. Multi-line footnotes are quoted.
type CSVWriter struct{}

func (w *CSVWriter) ContentType() string {
	return "text/csv; charset=utf-8"
}

func (w *CSVWriter) Write(rows []report.Row, out io.Writer) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
