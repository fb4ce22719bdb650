package types

import (
	"path/filepath"
	"strings"
)

// TextFragment 一段带坐标的文本片段，对应 PDF 渲染器输出的一个字形串
// Y 轴向下增长，多页文档按页叠加偏移，因此阅读顺序等价于 Y 递增
type TextFragment struct {
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	FontID    string  `json:"font_id"`
	FontName  string  `json:"font_name,omitempty"` // 解析后的字体显示名，未解析时与 FontID 相同
	EndOfLine bool    `json:"end_of_line"`
}

// IsBold 根据字体显示名判断是否粗体
func (f TextFragment) IsBold() bool {
	name := f.FontName
	if name == "" {
		name = f.FontID
	}
	return IsBoldFontName(name)
}

var boldFontMarkers = []string{"bold", "black", "heavy", "semibold", "demi"}

// IsBoldFontName 判断字体名是否为粗体字重
func IsBoldFontName(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range boldFontMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Line 视觉上的一行，片段在抽取顺序中连续
type Line []TextFragment

// Text 返回行文本，片段之间以单个空格连接
func (l Line) Text() string {
	parts := make([]string, 0, len(l))
	for _, f := range l {
		t := strings.TrimSpace(f.Text)
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// FirstY 返回首个片段的 Y 坐标
func (l Line) FirstY() float64 {
	if len(l) == 0 {
		return 0
	}
	return l[0].Y
}

// IsBold 以行首片段的字重为准
func (l Line) IsBold() bool {
	if len(l) == 0 {
		return false
	}
	return l[0].IsBold()
}

// LayoutKind 版面信息的类型标签
type LayoutKind string

const (
	// LayoutGeometric 带几何坐标的行序列（PDF）
	LayoutGeometric LayoutKind = "geometric"
	// LayoutFlat 纯文本（DOCX、纯文本、OCR 结果）
	LayoutFlat LayoutKind = "flat"
)

// Layout 片段抽取器的输出，Geometric(Lines) 与 Flat(Text) 二选一
type Layout struct {
	Kind      LayoutKind     `json:"kind"`
	Fragments []TextFragment `json:"-"`
	Lines     []Line         `json:"-"`
	Text      string         `json:"-"`
	PageCount int            `json:"page_count"`
}

// GeometricLayout 由原始片段构造几何版面，Lines 由行重建阶段填充
func GeometricLayout(frags []TextFragment, pageCount int) *Layout {
	return &Layout{Kind: LayoutGeometric, Fragments: frags, PageCount: pageCount}
}

// FlatLayout 构造纯文本版面
func FlatLayout(text string, pageCount int) *Layout {
	return &Layout{Kind: LayoutFlat, Text: text, PageCount: pageCount}
}

// IsGeometric 是否带有几何信息
func (l *Layout) IsGeometric() bool {
	return l != nil && l.Kind == LayoutGeometric
}

// PlainText 返回版面的纯文本，用于质量检测
func (l *Layout) PlainText() string {
	if l == nil {
		return ""
	}
	if l.Kind == LayoutFlat {
		return l.Text
	}
	var sb strings.Builder
	if len(l.Lines) > 0 {
		for i, line := range l.Lines {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(line.Text())
		}
		return sb.String()
	}
	for _, f := range l.Fragments {
		sb.WriteString(f.Text)
		if f.EndOfLine {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// Format 文档格式标签
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatDOC     Format = "doc"
	FormatText    Format = "text"
	FormatUnknown Format = "unknown"
)

// FormatFromFilename 按扩展名推断格式
func FormatFromFilename(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".doc":
		return FormatDOC
	case ".txt", ".text", ".md":
		return FormatText
	default:
		return FormatUnknown
	}
}
