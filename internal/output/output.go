package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/dgallion1/tflextract/internal/report"
)

// ErrOutputUnwritable is returned when the destination cannot be written.
var ErrOutputUnwritable = errors.New("output not writable")

// Columns is the fixed header of every format.
var Columns = []string{"Page", "Title", "Footnotes"}

// Format names an output encoding.
type Format string

const (
	FormatXLSX     Format = "xlsx"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
)

// Writer renders report rows to w.
type Writer interface {
	Write(rows []report.Row, w io.Writer) error
	ContentType() string
}

// ParseFormat accepts a format name, case-insensitively. "markdown" is an alias of "md".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// FormatFromPath picks the format from the destination extension, falling
// back to xlsx for unknown or missing extensions.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatXLSX
	}
	return f
}

// ForFormat returns the writer for f.
func ForFormat(f Format) (Writer, error) {
	switch f {
	case FormatXLSX, "":
		return &XLSXWriter{}, nil
	case FormatCSV:
		return &CSVWriter{}, nil
	case FormatJSON:
		return &JSONWriter{}, nil
	case FormatMarkdown:
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", f)
	}
}

// Render encodes rows in memory.
func Render(f Format, rows []report.Row) ([]byte, error) {
	w, err := ForFormat(f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := w.Write(rows, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders rows and replaces path atomically. A failed run never
// leaves a partial file.
func WriteFile(path string, f Format, rows []report.Row) error {
	data, err := Render(f, rows)
	if err != nil {
		return err
	}

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputUnwritable, err)
	}
	return nil
}

func record(r report.Row) []string {
	return []string{strconv.Itoa(r.Page), r.Title, r.FootnoteText()}
}
