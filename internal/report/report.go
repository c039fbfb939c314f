package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/tflextract/internal/classify"
	"github.com/dgallion1/tflextract/internal/source"
)

// Row is one extracted page. Footnotes are joined only when rendered.
type Row struct {
	Page      int      `json:"page"`
	Title     string   `json:"title"`
	Footnotes []string `json:"footnotes"`
}

// FootnoteText joins the footnotes with newlines, or "" when there are none.
func (r Row) FootnoteText() string {
	return strings.Join(r.Footnotes, "\n")
}

// PageFailure records a page that could not be read. It never fails the run.
type PageFailure struct {
	Page int   `json:"page"`
	Err  error `json:"-"`
}

func (f PageFailure) Error() string {
	return fmt.Sprintf("page %d: %v", f.Page, f.Err)
}

// Report is the result of one document run.
type Report struct {
	Source   string        `json:"source"`
	Pages    int           `json:"pages"`
	Rows     []Row         `json:"rows"`
	Failures []PageFailure `json:"-"`
}

// Assembler walks a document page by page and collects rows.
type Assembler struct {
	classifier *classify.Classifier
	log        *slog.Logger
}

func NewAssembler(c *classify.Classifier, log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{classifier: c, log: log}
}

// Build classifies pages 1..N in order. A row is added only for pages with a
// title. Unreadable pages are logged and recorded, then skipped. The only
// error returned is the context's, checked between pages.
func (a *Assembler) Build(ctx context.Context, name string, doc source.Document) (*Report, error) {
	n := doc.NumPages()
	rep := &Report{Source: name, Pages: n, Rows: []Row{}}
	log := a.log.With("source", name)

	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		res, err := a.page(doc, i)
		if err != nil {
			log.Warn("page unreadable, skipping", "page", i, "error", err)
			rep.Failures = append(rep.Failures, PageFailure{Page: i, Err: err})
			continue
		}
		if !res.HasTitle() {
			log.Debug("no title", "page", i)
			continue
		}
		notes := res.Footnotes
		if notes == nil {
			notes = []string{}
		}
		rep.Rows = append(rep.Rows, Row{Page: i, Title: res.Title, Footnotes: notes})
	}

	log.Info("document processed", "pages", n, "rows", len(rep.Rows), "failures", len(rep.Failures))
	return rep, nil
}

func (a *Assembler) page(doc source.Document, n int) (res classify.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: page %d: %v", source.ErrPageUnreadable, n, rec)
		}
	}()

	p, err := doc.Page(n)
	if err != nil {
		return classify.Result{}, err
	}
	return a.classifier.Classify(p)
}

// Run opens path, builds its report and closes the document on every path.
func (a *Assembler) Run(ctx context.Context, path string, opts source.Options) (*Report, error) {
	doc, err := source.Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	return a.Build(ctx, path, doc)
}
