package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
)

// maxPDFScanBytes bounds how much of a PDF is scanned for the Info
// dictionary. Info dictionaries sit near the start or end of the file in
// practice, and a full object parser is out of scope here.
const maxPDFScanBytes = 4 * 1024 * 1024

var pdfInfoKeys = []string{"Title", "Author", "Subject", "Creator", "Producer", "CreationDate", "ModDate"}

var (
	pdfEntryPatterns = compilePDFPatterns()
	pdfPagePattern   = regexp.MustCompile(`/Type\s*/Page[^s]`)
	pdfDatePattern   = regexp.MustCompile(`^D:(\d{4})(\d{2})?(\d{2})?(\d{2})?(\d{2})?(\d{2})?`)
)

func compilePDFPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(pdfInfoKeys))
	for _, key := range pdfInfoKeys {
		// Literal-string values only; hex strings are rare in Info entries.
		patterns[key] = regexp.MustCompile(`/` + key + `\s*\(((?:[^()\\]|\\.)*)\)`)
	}
	return patterns
}

// extractPDF scrapes the Info dictionary entries and page count from a PDF
// without a full parser. Anything it cannot find is simply absent.
func extractPDF(path string) map[string]any {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPDFScanBytes))
	if err != nil {
		return nil
	}

	fields := map[string]any{}
	for _, key := range pdfInfoKeys {
		match := pdfEntryPatterns[key].FindSubmatch(data)
		if match == nil {
			continue
		}
		value := unescapePDFString(string(match[1]))
		if value == "" {
			continue
		}
		if key == "CreationDate" || key == "ModDate" {
			value = normalizePDFDate(value)
		}
		fields[key] = value
	}

	if pages := len(pdfPagePattern.FindAll(data, -1)); pages > 0 {
		fields["Pages"] = pages
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func unescapePDFString(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			default:
				out = append(out, s[i])
			}
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// normalizePDFDate converts D:YYYYMMDDHHmmSS values into the dashed layout
// the timeline builder accepts. Unrecognized values pass through untouched.
func normalizePDFDate(raw string) string {
	match := pdfDatePattern.FindStringSubmatch(raw)
	if match == nil {
		return raw
	}

	part := func(idx int, fallback string) string {
		if match[idx] == "" {
			return fallback
		}
		return match[idx]
	}

	return fmt.Sprintf("%s-%s-%s %s:%s:%s",
		match[1], part(2, "01"), part(3, "01"),
		part(4, "00"), part(5, "00"), part(6, "00"))
}
