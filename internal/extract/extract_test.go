package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestTextPlain(t *testing.T) {
	t.Parallel()
	got, err := Text("notes.TXT", []byte("дедлайн 25 октября"))
	if err != nil {
		t.Fatalf("Text returned error: %v", err)
	}
	if got != "дедлайн 25 октября" {
		t.Errorf("Text = %q", got)
	}
}

func TestTextUnsupported(t *testing.T) {
	t.Parallel()
	if _, err := Text("photo.png", []byte{1, 2, 3}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", err)
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("failed to create zip entry: %v", err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatalf("failed to write zip entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func TestTextDocx(t *testing.T) {
	t.Parallel()
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Syllabus</w:t></w:r></w:p>
    <w:p><w:r><w:t>Midterm: </w:t></w:r><w:r><w:t>25 October</w:t></w:r></w:p>
  </w:body>
</w:document>`

	got, err := Text("syllabus.docx", buildDocx(t, doc))
	if err != nil {
		t.Fatalf("Text returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d paragraphs, want 2:\n%q", len(lines), got)
	}
	if lines[0] != "Syllabus" {
		t.Errorf("first paragraph = %q", lines[0])
	}
	if lines[1] != "Midterm: 25 October" {
		t.Errorf("second paragraph = %q, runs not joined", lines[1])
	}
}

func TestTextDocxMissingDocument(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, _ := w.Create("word/other.xml")
	f.Write([]byte("<x/>"))
	w.Close()

	if _, err := Text("broken.docx", buf.Bytes()); err == nil {
		t.Error("docx without document.xml did not fail")
	}
}
