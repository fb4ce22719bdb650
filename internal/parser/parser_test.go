package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/layout"
	"resume-parser-go/internal/types"
)

// buildPDF 生成单页 PDF，每个元素为 [字体资源名, y, 文本]
func buildPDF(t *testing.T, lines [][3]string) []byte {
	t.Helper()
	var content strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&content, "BT /%s 12 Tf 72 %s Td (%s) Tj ET\n", l[0], l[1], l[2])
	}
	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R /F2 5 0 R >> >> /Contents 6 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /ABCDEF+Helvetica-Bold /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
	}
	return assemblePDF(objects)
}

// assemblePDF 按顺序编号对象并写出 xref 表
func assemblePDF(objects []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
<w:p><w:r><w:t>Engineer</w:t></w:r><w:r><w:tab/><w:t>Acme</w:t></w:r></w:p>
<w:p><w:r><w:t>line one</w:t><w:br/><w:t>line two</w:t></w:r></w:p>
</w:body></w:document>`

func TestInferFormat(t *testing.T) {
	docx := buildDOCX(t, sampleDocumentXML)
	tests := []struct {
		name     string
		data     []byte
		filename string
		want     types.Format
	}{
		{"extension wins", []byte("plain"), "cv.PDF", types.FormatPDF},
		{"docx extension", nil, "cv.docx", types.FormatDOCX},
		{"sniff pdf", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj"), "upload", types.FormatPDF},
		{"sniff docx", docx, "", types.FormatDOCX},
		{"sniff text", []byte("Jane Doe\nSoftware Engineer\n"), "resume", types.FormatText},
		{"empty", nil, "", types.FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferFormat(tt.data, tt.filename))
		})
	}
}

func TestGroupGlyphs(t *testing.T) {
	glyph := func(font string, size, x, y, w float64, s string) pdf.Text {
		return pdf.Text{Font: font, FontSize: size, X: x, Y: y, W: w, S: s}
	}
	bold := "ABCDEF+Helvetica-Bold"
	var glyphs []pdf.Text
	for i, r := range "Jane" {
		glyphs = append(glyphs, glyph(bold, 12, 10+float64(i)*6, 700, 6, string(r)))
	}
	glyphs = append(glyphs, glyph(bold, 12, 34, 700, 3, " "))
	for i, r := range "Doe" {
		glyphs = append(glyphs, glyph(bold, 12, 37+float64(i)*6, 700, 6, string(r)))
	}
	// 超过 1.5 倍字号的间距开启新片段
	glyphs = append(glyphs, glyph(bold, 12, 200, 700, 3, "|"))
	// 换行
	glyphs = append(glyphs,
		glyph("Helvetica", 10, 10, 680, 6, "G"),
		glyph("Helvetica", 10, 16, 680, 6, "o"),
		// 小间距插入一个空格
		glyph("Helvetica", 10, 25, 680, 6, "D"),
		glyph("Helvetica", 10, 31, 680, 6, "e"),
		glyph("Helvetica", 10, 37, 680, 6, "v"),
	)

	frags := groupGlyphs(glyphs, 0, 792, "")
	require.Len(t, frags, 3)

	assert.Equal(t, "Jane Doe", frags[0].Text)
	assert.InDelta(t, 10, frags[0].X, 1e-9)
	assert.InDelta(t, 92, frags[0].Y, 1e-9)
	assert.InDelta(t, 45, frags[0].Width, 1e-9)
	assert.Equal(t, "Helvetica-Bold", frags[0].FontName)
	assert.True(t, frags[0].IsBold())
	assert.False(t, frags[0].EndOfLine)

	assert.Equal(t, "|", frags[1].Text)
	assert.True(t, frags[1].EndOfLine)

	assert.Equal(t, "Go Dev", frags[2].Text)
	assert.InDelta(t, 112, frags[2].Y, 1e-9)
	assert.InDelta(t, 33, frags[2].Width, 1e-9)
	assert.True(t, frags[2].EndOfLine, "页面最后一个片段带行尾标记")
}

func TestGroupGlyphs_PageOffset(t *testing.T) {
	frags := groupGlyphs([]pdf.Text{{Font: "F", FontSize: 10, X: 0, Y: 700, W: 5, S: "A"}}, 792, 792, "")
	require.Len(t, frags, 1)
	assert.InDelta(t, 792+92, frags[0].Y, 1e-9)
}

func TestGroupGlyphs_FontChangeKeepsWordSpace(t *testing.T) {
	word := func(font string, x float64, text string) []pdf.Text {
		var out []pdf.Text
		for i, r := range text {
			out = append(out, pdf.Text{Font: font, FontSize: 10, X: x + float64(i)*5, Y: 700, W: 5, S: string(r)})
		}
		return out
	}

	tests := []struct {
		name   string
		glyphs []pdf.Text
		want   string
	}{
		{
			name:   "位置间距",
			glyphs: append(word("Helvetica-Bold", 50, "Acme"), word("Helvetica", 73, "Engineer")...),
			want:   "Acme Engineer",
		},
		{
			name: "空格字形",
			glyphs: append(append(word("Helvetica-Bold", 50, "Acme"),
				pdf.Text{Font: "Helvetica-Bold", FontSize: 10, X: 70, Y: 700, W: 2.5, S: " "}),
				word("Helvetica", 72.5, "Engineer")...),
			want: "Acme Engineer",
		},
		{
			name:   "无间距的字体切换",
			glyphs: append(word("Helvetica-Bold", 50, "Go"), word("Helvetica", 60, "lang")...),
			want:   "Golang",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frags := groupGlyphs(tt.glyphs, 0, 792, "")
			require.Len(t, frags, 2)

			lines := layout.Reconstruct(frags)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.want, lines[0].Text())

			// 再次合并结果不变
			again := layout.MergeLine(lines[0], layout.TypicalCharWidth(frags))
			assert.Equal(t, lines[0], again)
		})
	}
}

func TestGroupGlyphs_UnnamedFontFallback(t *testing.T) {
	glyphs := []pdf.Text{
		{Font: "", FontSize: 10, X: 0, Y: 700, W: 5, S: "A"},
		{Font: "Helvetica", FontSize: 10, X: 50, Y: 700, W: 5, S: "B"},
	}
	frags := groupGlyphs(glyphs, 0, 792, "F3")
	require.Len(t, frags, 2)
	assert.Equal(t, "F3", frags[0].FontID)
	assert.Equal(t, "Helvetica", frags[1].FontID)
}

func TestUnnamedFontID(t *testing.T) {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R /F3 5 0 R >> >> /Contents 6 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		"<< /Type /Font /Subtype /Type3 /FontMatrix [0.001 0 0 0.001 0 0] >>",
		"<< /Length 0 >>\nstream\nendstream",
	}
	data := assemblePDF(objects)
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "F3", unnamedFontID(r.Page(1)))

	named := buildPDF(t, [][3]string{{"F1", "700", "Jane"}})
	r, err = pdf.NewReader(bytes.NewReader(named), int64(len(named)))
	require.NoError(t, err)
	assert.Equal(t, "", unnamedFontID(r.Page(1)), "字体都有 BaseFont 时不需要替代名")
}

func TestFontDisplayName(t *testing.T) {
	assert.Equal(t, "Helvetica-Bold", fontDisplayName("ABCDEF+Helvetica-Bold"))
	assert.Equal(t, "Helvetica", fontDisplayName("Helvetica"))
	assert.Equal(t, "abc+Font", fontDisplayName("abc+Font"))
}

func TestExtract_PDF(t *testing.T) {
	data := buildPDF(t, [][3]string{
		{"F2", "720", "JANE DOE"},
		{"F1", "700", "Software Engineer"},
	})
	layout, err := NewExtractor().Extract(context.Background(), data, types.FormatPDF)
	require.NoError(t, err)
	require.True(t, layout.IsGeometric())
	assert.Equal(t, 1, layout.PageCount)
	require.Len(t, layout.Fragments, 2)

	assert.Equal(t, "JANE DOE", layout.Fragments[0].Text)
	assert.True(t, layout.Fragments[0].IsBold())
	assert.InDelta(t, 72, layout.Fragments[0].Y, 0.5)
	assert.Equal(t, "Software Engineer", layout.Fragments[1].Text)
	assert.False(t, layout.Fragments[1].IsBold())
	assert.Less(t, layout.Fragments[0].Y, layout.Fragments[1].Y)
}

type stubFlat struct {
	text string
	err  error
}

func (s stubFlat) ParseText(context.Context, []byte, string) (string, error) { return s.text, s.err }

func TestExtract_PDFFlatFallback(t *testing.T) {
	data := buildPDF(t, nil)

	layout, err := NewExtractor(WithFlatPDFParser(stubFlat{text: "Jane Doe"})).Extract(context.Background(), data, types.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, types.LayoutFlat, layout.Kind)
	assert.Equal(t, "Jane Doe", layout.Text)

	layout, err = NewExtractor(WithFlatPDFParser(stubFlat{err: errors.New("boom")})).Extract(context.Background(), data, types.FormatPDF)
	require.NoError(t, err)
	assert.True(t, layout.IsGeometric())
	assert.Empty(t, layout.Fragments)
}

func TestExtract_CorruptPDF(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), []byte("%PDF-1.4 garbage"), types.FormatPDF)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func TestExtract_DOCX(t *testing.T) {
	layout, err := NewExtractor().Extract(context.Background(), buildDOCX(t, sampleDocumentXML), types.FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, types.LayoutFlat, layout.Kind)
	assert.Equal(t, "Jane Doe\nEngineer\tAcme\nline one\nline two\n", layout.Text)
}

func TestExtract_CorruptDOCX(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), []byte("PK\x03\x04broken"), types.FormatDOCX)
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func TestExtract_DOC(t *testing.T) {
	// 扩展名为 .doc 的 docx
	layout, err := NewExtractor().Extract(context.Background(), buildDOCX(t, sampleDocumentXML), types.FormatDOC)
	require.NoError(t, err)
	assert.Contains(t, layout.Text, "Engineer\tAcme")

	binary := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0x00, 0x01}, []byte("Jane Doe\x00\x00ab\x00Software Engineer\x01")...)
	layout, err = NewExtractor().Extract(context.Background(), binary, types.FormatDOC)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSoftware Engineer", layout.Text)

	// 没有可提取的文本时返回空的纯文本版面，交给质量检查与 OCR 处理
	layout, err = NewExtractor().Extract(context.Background(), []byte{0xD0, 0xCF, 0x11, 0xE0, 0x00, 0x01, 0x02}, types.FormatDOC)
	require.NoError(t, err)
	assert.Equal(t, types.LayoutFlat, layout.Kind)
	assert.Empty(t, layout.Text)
}

func TestExtract_PlainText(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Jane Doe\r\nCafé\rEnd")...)
	layout, err := NewExtractor().Extract(context.Background(), data, types.FormatText)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nCafé\nEnd", layout.Text)
}

func TestExtract_Errors(t *testing.T) {
	ex := NewExtractor()
	_, err := ex.Extract(context.Background(), []byte("data"), types.FormatUnknown)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ex.Extract(context.Background(), nil, types.FormatPDF)
	assert.ErrorIs(t, err, ErrCorruptDocument)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ex.Extract(ctx, []byte("data"), types.FormatText)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMeasureQuality(t *testing.T) {
	q := MeasureQuality("ab cé\n")
	assert.Equal(t, 4, q.Chars)
	assert.InDelta(t, 0.25, q.NonASCIIRatio, 1e-9)
	assert.InDelta(t, 1.0, q.PrintableRatio, 1e-9)

	assert.True(t, MeasureQuality(strings.Repeat("a", 120)).Acceptable(100, 0.5))
	assert.False(t, MeasureQuality("short").Acceptable(100, 0.5))
	assert.False(t, MeasureQuality(strings.Repeat("é", 120)).Acceptable(100, 0.5))
	assert.Equal(t, Quality{}, MeasureQuality("   "))
}
