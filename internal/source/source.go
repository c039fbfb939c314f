package source

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/tflextract/internal/classify"
)

var (
	// ErrInputMissing is returned by Open when the path does not name an existing file.
	ErrInputMissing = errors.New("input document not found")
	// ErrPageUnreadable marks a page whose text or geometry could not be extracted.
	ErrPageUnreadable = errors.New("page unreadable")
)

// Document is an open, paginated document. Pages are numbered from 1.
type Document interface {
	NumPages() int
	Page(n int) (classify.TextSource, error)
	Close() error
}

// Options controls how documents are opened.
type Options struct {
	// FallbackPdftotext retries unreadable PDFs through the pdftotext binary.
	FallbackPdftotext bool
	Log               *slog.Logger
}

// SupportedExtensions lists file extensions this tool can read.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Open checks that path exists and opens it with the reader for its extension.
// The caller owns the returned Document and must Close it.
func Open(path string, opts Options) (Document, error) {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrInputMissing, err)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInputMissing, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return openPDF(path, opts)
	case ".txt":
		return openWith(path, ParseText)
	case ".md", ".markdown":
		return openWith(path, ParseMarkdown)
	case ".html", ".htm":
		return openWith(path, ParseHTML)
	case ".docx":
		return openDOCX(path)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

func openPDF(path string, opts Options) (Document, error) {
	doc, err := OpenPDF(path)
	if err == nil {
		return doc, nil
	}
	if !opts.FallbackPdftotext {
		return nil, err
	}

	opts.Log.Warn("pdf reader failed, falling back to pdftotext", "path", path, "error", err)
	text, ferr := extractPdftotext(path)
	if ferr != nil {
		return nil, fmt.Errorf("%v; fallback: %w", err, ferr)
	}
	return ParseText(strings.NewReader(text))
}
