package output

import (
	"io"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/dgallion1/tflextract/internal/report"
)

// MarkdownWriter writes a GitHub-flavoured table. Footnote lines are joined
// with <br> because table cells cannot span lines.
type MarkdownWriter struct{}

func (w *MarkdownWriter) ContentType() string {
	return "text/markdown; charset=utf-8"
}

func (w *MarkdownWriter) Write(rows []report.Row, out io.Writer) error {
	md := markdown.NewMarkdown(out)

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		rec := record(r)
		for i := range rec {
			rec[i] = escapeCell(rec[i])
		}
		cells = append(cells, rec)
	}
	md.Table(markdown.TableSet{
		Header: Columns,
		Rows:   cells,
	})
	return md.Build()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", "<br>")
}
