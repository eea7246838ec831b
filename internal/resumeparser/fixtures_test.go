package resumeparser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writePDF builds a minimal PDF with one page per entry of pages, each line drawn on its
// own baseline in Helvetica with an absolute Tm, and returns its path.
func writePDF(t *testing.T, name string, pages ...[]string) string {
	t.Helper()

	streams := make([]string, len(pages))
	for i, lines := range pages {
		var stream strings.Builder
		y := 720
		for _, line := range lines {
			fmt.Fprintf(&stream, "BT /F1 12 Tf 1 0 0 1 72 %d Tm (%s) Tj ET\n", y, escapePDFString(line))
			y -= 20
		}
		streams[i] = stream.String()
	}
	return writePDFStreams(t, name, streams...)
}

// tdStream draws lines inside a single text object, moving down with relative Td
// operators the way LaTeX and LibreOffice output does.
func tdStream(lines ...string) string {
	var stream strings.Builder
	stream.WriteString("BT /F1 12 Tf 72 720 Td\n")
	for i, line := range lines {
		if i > 0 {
			stream.WriteString("0 -20 Td\n")
		}
		fmt.Fprintf(&stream, "(%s) Tj\n", escapePDFString(line))
	}
	stream.WriteString("ET\n")
	return stream.String()
}

// writePDFStreams builds a PDF with one page per raw content stream, all using
// Helvetica as /F1.
func writePDFStreams(t *testing.T, name string, streams ...string) string {
	t.Helper()

	pageCount := len(streams)
	// 1 catalog, 2 pages tree, 3 font, then a (page, contents) pair per page
	objects := make([]string, 3+2*pageCount)
	kids := make([]string, pageCount)
	for i, stream := range streams {
		pageNum := 4 + 2*i
		contentNum := pageNum + 1
		kids[i] = fmt.Sprintf("%d 0 R", pageNum)

		objects[pageNum-1] = fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentNum)
		objects[contentNum-1] = fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream)
	}
	objects[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount)
	objects[2] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefOffset)

	return writeFile(t, name, buf.Bytes())
}

func escapePDFString(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}

// writeDocx builds a minimal DOCX with one w:p per paragraph. Newlines inside a
// paragraph become w:br line breaks, as Word stores soft returns.
func writeDocx(t *testing.T, name string, paragraphs ...string) string {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<w:p>")
		for i, line := range strings.Split(p, "\n") {
			if i > 0 {
				body.WriteString("<w:r><w:br/></w:r>")
			}
			if line == "" {
				continue
			}
			var escaped bytes.Buffer
			require.NoError(t, xml.EscapeText(&escaped, []byte(line)))
			fmt.Fprintf(&body, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, escaped.String())
		}
		body.WriteString("</w:p>")
	}

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() + `</w:body></w:document>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, fname := range []string{"[Content_Types].xml", "_rels/.rels", "word/_rels/document.xml.rels", "word/document.xml"} {
		w, err := zw.Create(fname)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[fname]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return writeFile(t, name, buf.Bytes())
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
