// Package main provides the tflextract CLI.
//
// tflextract reads a paginated report of Tables, Figures and Listings and
// writes one spreadsheet row per titled page: page number, title and the
// footnotes found in the page footer.
//
// Usage:
//
//	tflextract extract report.pdf -o report.xlsx
//	tflextract batch --out-dir out/ reports/
//	tflextract rules
package main

func main() {
	Execute()
}
