package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ParseText reads plain text where pages are separated by form feeds, the
// layout pdftotext produces.
func ParseText(r io.Reader) (*PagedDocument, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pg pager
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		parts := strings.Split(line, "\f")
		for i, part := range parts {
			if i > 0 {
				pg.pageBreak()
			}
			if part == "" && len(parts) > 1 {
				continue
			}
			pg.line(part)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return pg.document(), nil
}

func openWith(path string, parse func(io.Reader) (*PagedDocument, error)) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	doc, err := parse(f)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
