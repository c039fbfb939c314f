package output

import (
	"encoding/json"
	"io"

	"github.com/dgallion1/tflextract/internal/report"
)

// JSONWriter writes an array of {page, title, footnotes} objects.
type JSONWriter struct{}

type jsonRow struct {
	Page      int    `json:"page"`
	Title     string `json:"title"`
	Footnotes string `json:"footnotes"`
}

func (w *JSONWriter) ContentType() string {
	return "application/json"
}

func (w *JSONWriter) Write(rows []report.Row, out io.Writer) error {
	items := make([]jsonRow, 0, len(rows))
	for _, r := range rows {
		items = append(items, jsonRow{Page: r.Page, Title: r.Title, Footnotes: r.FootnoteText()})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
