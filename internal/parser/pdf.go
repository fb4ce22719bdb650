package parser

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"resume-parser-go/internal/types"
)

const (
	// 相对字号的阈值
	lineBreakRatio  = 0.5
	spaceGapRatio   = 0.15
	newRunGapRatio  = 1.5
	defaultPageSize = 792.0
)

// extractPDFFragments 逐页读取字形并合并为片段
// 解码器对畸形文件可能 panic，统一转为 ErrCorruptDocument
func extractPDFFragments(data []byte) (frags []types.TextFragment, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			frags, pages = nil, 0
			err = fmt.Errorf("%w: pdf decoder panic: %v", ErrCorruptDocument, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	pages = r.NumPage()
	offset := 0.0
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		height := pageHeight(p)
		frags = append(frags, groupGlyphs(p.Content().Text, offset, height, unnamedFontID(p))...)
		offset += height
	}
	return frags, pages, nil
}

// pageHeight MediaBox 高度，缺失时按 Letter 纸处理
func pageHeight(p pdf.Page) float64 {
	box := p.V.Key("MediaBox")
	if box.Len() == 4 {
		if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
			return h
		}
	}
	return defaultPageSize
}

// unnamedFontID 缺少 BaseFont 的字体资源名
// 字形只携带 BaseFont，这些字体在页内无法再区分，多个时以 "|" 连接
func unnamedFontID(p pdf.Page) string {
	var names []string
	for _, name := range p.Fonts() {
		if p.Font(name).BaseFont() == "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

type glyphRun struct {
	sb       strings.Builder
	font     string
	size     float64
	x, y     float64
	end      float64
	pending  bool
	hasGlyph bool
}

// groupGlyphs 把一页的字形合并为片段；PDF 坐标原点在左下，转换为自上而下递增的 Y
// fallbackFont 用作无字体名字形的 FontID
func groupGlyphs(glyphs []pdf.Text, offset, height float64, fallbackFont string) []types.TextFragment {
	var (
		out []types.TextFragment
		run *glyphRun
	)
	// spaced 为 true 时片段末尾保留词间空格，字体切换处的单词不会被粘连
	flush := func(eol, spaced bool) {
		if run == nil || !run.hasGlyph {
			if eol && len(out) > 0 {
				out[len(out)-1].EndOfLine = true
			}
			run = nil
			return
		}
		text := run.sb.String()
		if spaced {
			text += " "
		}
		fontID := run.font
		if fontID == "" {
			fontID = fallbackFont
		}
		out = append(out, types.TextFragment{
			Text:      text,
			X:         run.x,
			Y:         offset + height - run.y,
			Width:     run.end - run.x,
			Height:    run.size,
			FontID:    fontID,
			FontName:  fontDisplayName(run.font),
			EndOfLine: eol,
		})
		run = nil
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		size := g.FontSize
		if size <= 0 {
			size = 1
		}
		if strings.TrimSpace(g.S) == "" {
			if strings.ContainsAny(g.S, "\n\r") {
				flush(true, false)
			} else if run != nil {
				run.pending = true
				run.end = math.Max(run.end, g.X+g.W)
			}
			continue
		}

		if run != nil {
			gap := g.X - run.end
			switch {
			case math.Abs(g.Y-run.y) > lineBreakRatio*size, g.X < run.end-lineBreakRatio*size:
				flush(true, false)
			case gap > newRunGapRatio*size:
				flush(false, false)
			case g.Font != run.font || math.Abs(g.FontSize-run.size) > 0.01:
				flush(false, run.pending || gap > spaceGapRatio*size)
			case gap > spaceGapRatio*size:
				run.pending = true
			}
		}
		if run == nil {
			run = &glyphRun{font: g.Font, size: g.FontSize, x: g.X, y: g.Y, end: g.X}
		}
		if run.pending && run.hasGlyph {
			run.sb.WriteByte(' ')
		}
		run.pending = false
		run.sb.WriteString(g.S)
		run.hasGlyph = true
		run.end = math.Max(run.end, g.X+g.W)
	}
	flush(true, false)
	return out
}

// fontDisplayName 去掉子集前缀 "ABCDEF+"
func fontDisplayName(base string) string {
	if i := strings.IndexByte(base, '+'); i == 6 {
		prefix := base[:i]
		if strings.IndexFunc(prefix, func(r rune) bool { return !unicode.IsUpper(r) }) < 0 {
			return base[i+1:]
		}
	}
	return base
}
