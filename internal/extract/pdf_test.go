package extract

import (
	"context"
	"testing"
)

const samplePDF = `%PDF-1.4
1 0 obj
<< /Title (Quarterly Report) /Author (Jane Doe) /Producer (Acrobat Distiller) /CreationDate (D:20240101100000Z) /ModDate (D:20231231090000Z) >>
endobj
2 0 obj
<< /Type /Page >>
endobj
3 0 obj
<< /Type /Page >>
endobj
trailer
<< /Info 1 0 R >>
%%EOF
`

func TestExtractPDFInfoDictionary(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "report.pdf", []byte(samplePDF))

	fields := extractPDF(path)
	if fields == nil {
		t.Fatal("expected PDF fields")
	}

	if fields["Author"] != "Jane Doe" {
		t.Fatalf("unexpected author: %#v", fields["Author"])
	}
	if fields["Producer"] != "Acrobat Distiller" {
		t.Fatalf("unexpected producer: %#v", fields["Producer"])
	}
	if fields["CreationDate"] != "2024-01-01 10:00:00" {
		t.Fatalf("unexpected creation date: %#v", fields["CreationDate"])
	}
	if fields["Pages"] != 2 {
		t.Fatalf("expected 2 pages, got %#v", fields["Pages"])
	}
}

func TestExtractRoutesPDF(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "report.pdf", []byte(samplePDF))

	extractor := New(nil)
	out, err := extractor.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if out.Record["Author"] != "Jane Doe" {
		t.Fatalf("pdf backend did not run: %#v", out.Record)
	}
}

func TestNormalizePDFDate(t *testing.T) {
	cases := map[string]string{
		"D:20240101100000Z": "2024-01-01 10:00:00",
		"D:20240101":        "2024-01-01 00:00:00",
		"D:2024":            "2024-01-01 00:00:00",
		"already normal":    "already normal",
	}

	for raw, want := range cases {
		if got := normalizePDFDate(raw); got != want {
			t.Fatalf("normalizePDFDate(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestUnescapePDFString(t *testing.T) {
	if got := unescapePDFString(`Jane \(QA\) Doe`); got != "Jane (QA) Doe" {
		t.Fatalf("unexpected unescape: %q", got)
	}
}
