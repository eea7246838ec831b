package resumeparser

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	einopdf "github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// pdfStrategy turns the PDF at path into plain text.
type pdfStrategy func(ctx context.Context, path string) (string, error)

const (
	// used when the reader reports no glyph width for a fragment
	defaultGlyphWidth = 5.0
	wordGap           = 1.5
)

// SupportedExtension reports whether the file name has a resume extension the
// extractor understands (.pdf, .docx, .doc, in any case).
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".docx", ".doc":
		return true
	}
	return false
}

// ExtractText returns the raw text of the resume at path using the default parser.
func ExtractText(ctx context.Context, path string) (string, error) {
	return defaultParser.ExtractText(ctx, path)
}

// ExtractText dispatches on the file extension and returns the document text with
// pages/paragraphs separated by newlines.
func (p *Parser) ExtractText(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !SupportedExtension(path) {
		return "", &ExtractError{Path: path, Op: "dispatch", BaseErr: ErrUnsupportedFormat, Detail: fmt.Errorf("extension %q", ext)}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", &ExtractError{Path: path, Op: "stat", BaseErr: ErrExtractionFailure, Detail: err}
	}
	if info.Size() == 0 {
		return "", nil
	}

	if ext == ".pdf" {
		return p.extractPDF(ctx, path)
	}
	text, err := extractDocx(path)
	if err != nil {
		return "", &ExtractError{Path: path, Op: "docx", BaseErr: ErrExtractionFailure, Detail: err}
	}
	return text, nil
}

func (p *Parser) extractPDF(ctx context.Context, path string) (string, error) {
	text, primaryErr := p.pdfPrimary(ctx, path)
	if primaryErr == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if p.pdfFallback == nil {
		if primaryErr != nil {
			return "", &ExtractError{Path: path, Op: "pdf layout", BaseErr: ErrExtractionFailure, Detail: primaryErr}
		}
		return text, nil
	}

	p.logger.Warn().
		Str("file", path).
		AnErr("primary_err", primaryErr).
		Msg("layout extraction produced no text, falling back to page text streams")

	fallback, fallbackErr := p.pdfFallback(ctx, path)
	if fallbackErr != nil {
		if primaryErr != nil {
			return "", &ExtractError{
				Path:    path,
				Op:      "pdf",
				BaseErr: ErrExtractionFailure,
				Detail:  fmt.Errorf("layout: %v; text stream: %w", primaryErr, fallbackErr),
			}
		}
		// primary read the file fine, it just had nothing to say
		return text, nil
	}
	return fallback, nil
}

// extractPDFRows rebuilds each page line by line from positioned glyphs, which keeps
// multi-column and table rows together.
func extractPDFRows(_ context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		if lines := pageRows(page.Content().Text); len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(pages, "\n"), nil
}

// pageRows groups glyphs that share a baseline into rows, top of the page first, and
// joins each row left to right. Content tracks the full text matrix (Tm, Td, TD, T*),
// so lines placed by relative moves still land on their own baseline.
func pageRows(glyphs []pdf.Text) []string {
	type row struct {
		y      float64
		glyphs pdf.TextHorizontal
	}
	var rows []*row
	byBaseline := make(map[float64]*row)
	for _, g := range glyphs {
		// TJ arrays end with a synthetic newline glyph
		if strings.Trim(g.S, "\r\n") == "" {
			continue
		}
		y := math.Round(g.Y)
		r, ok := byBaseline[y]
		if !ok {
			r = &row{y: y}
			byBaseline[y] = r
			rows = append(rows, r)
		}
		r.glyphs = append(r.glyphs, g)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		// stable: fonts without /Widths leave every glyph of a run at the same X
		sort.SliceStable(r.glyphs, func(i, j int) bool { return r.glyphs[i].X < r.glyphs[j].X })
		if line := joinRow(r.glyphs); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// joinRow concatenates the fragments of one row, inserting a space where the
// horizontal gap between fragments looks like a word break.
func joinRow(fragments pdf.TextHorizontal) string {
	var b strings.Builder
	var prevEnd float64
	var last rune
	for i, t := range fragments {
		if t.S == "" {
			continue
		}
		first, _ := utf8.DecodeRuneInString(t.S)
		if i > 0 && t.X-prevEnd > wordGap && !unicode.IsSpace(last) && !unicode.IsSpace(first) {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		last, _ = utf8.DecodeLastRuneInString(t.S)

		width := t.W
		if width <= 0 {
			glyph := defaultGlyphWidth
			if t.FontSize > 0 {
				glyph = t.FontSize / 2
			}
			width = float64(utf8.RuneCountInString(t.S)) * glyph
		}
		prevEnd = t.X + width
	}
	return b.String()
}

// extractPDFTextStreams reads each page's text stream in content order through the
// eino PDF parser. Layout is lost, but it copes with producers the row reader cannot.
func extractPDFTextStreams(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf text stream panic: %v", r)
		}
	}()

	p, err := einopdf.NewPDFParser(ctx, &einopdf.Config{ToPages: true})
	if err != nil {
		return "", fmt.Errorf("failed to create eino PDF parser: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF file %s: %w", path, err)
	}
	defer file.Close()

	docs, err := p.Parse(ctx, file, einoParser.WithURI(path))
	if err != nil {
		return "", fmt.Errorf("eino PDF parser failed for %s: %w", path, err)
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		pages = append(pages, strings.TrimRight(doc.Content, "\n"))
	}
	return strings.Join(pages, "\n"), nil
}

func extractDocx(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer r.Close()

	return docxParagraphs(r.Editable().GetContent())
}

// docxParagraphs walks word/document.xml and returns one line per non-empty paragraph.
func docxParagraphs(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	flush := func() {
		if strings.TrimSpace(current.String()) != "" {
			paragraphs = append(paragraphs, current.String())
		}
		current.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read document.xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				// text boxes nest paragraphs inside a run; keep what came before separate
				flush()
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "p":
				flush()
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(el)
			}
		}
	}
	flush()

	return strings.Join(paragraphs, "\n"), nil
}
