// Package layout 把 PDF 字形片段重建为阅读顺序的行
package layout

import (
	"math"
	"strings"
	"unicode/utf8"

	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/types"
)

// junctionMarks 合并边界处需要补空格的标点
const junctionMarks = ":,|."

type fontKey struct {
	height float64
	fontID string
}

// Reconstruct 分行并修复被拆散的单词
func Reconstruct(frags []types.TextFragment) []types.Line {
	lines := GroupLines(frags)
	w := TypicalCharWidth(frags)
	for i := range lines {
		lines[i] = MergeLine(lines[i], w)
	}
	return lines
}

// GroupLines 按 EndOfLine 分行
// 去掉空白片段；空白片段若带行尾标记，标记转移到本行前一个片段
func GroupLines(frags []types.TextFragment) []types.Line {
	var (
		lines   []types.Line
		current types.Line
	)
	flush := func() {
		if len(current) > 0 {
			current[len(current)-1].EndOfLine = true
			lines = append(lines, current)
		}
		current = nil
	}
	for _, f := range frags {
		if strings.TrimSpace(f.Text) != "" {
			current = append(current, f)
		}
		if f.EndOfLine {
			flush()
		}
	}
	flush()
	return lines
}

// TypicalCharWidth 全文出现最多的 (字号, 字体) 组合的平均字符宽度
// 出现次数相同时取最先出现的组合
func TypicalCharWidth(frags []types.TextFragment) float64 {
	counts := make(map[fontKey]int)
	var order []fontKey
	for _, f := range frags {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		k := keyOf(f)
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	if len(order) == 0 {
		return 0
	}
	modal := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[modal] {
			modal = k
		}
	}

	var width float64
	var chars int
	for _, f := range frags {
		if strings.TrimSpace(f.Text) == "" || keyOf(f) != modal {
			continue
		}
		width += f.Width
		// 片段末尾的词间空格不占宽度
		chars += utf8.RuneCountInString(strings.TrimRight(f.Text, " "))
	}
	if chars == 0 {
		return 0
	}
	return width / float64(chars)
}

func keyOf(f types.TextFragment) fontKey {
	return fontKey{height: math.Round(f.Height*100) / 100, fontID: f.FontID}
}

// MergeLine 从右向左扫描，间距不超过 typicalWidth 的相邻片段合并为一个
// 合并后宽度延伸到两者的最右端，因此对输出再次执行不会产生新的合并
func MergeLine(line types.Line, typicalWidth float64) types.Line {
	if len(line) < 2 || typicalWidth <= 0 {
		return line
	}
	merged := make(types.Line, len(line))
	copy(merged, line)
	for i := len(merged) - 1; i > 0; i-- {
		left, right := merged[i-1], merged[i]
		gap := right.X - (left.X + left.Width)
		if gap > typicalWidth {
			continue
		}
		merged[i-1] = joinFragments(left, right)
		merged = append(merged[:i], merged[i+1:]...)
	}
	return merged
}

func joinFragments(left, right types.TextFragment) types.TextFragment {
	out := left
	if needsSpace(left.Text, right.Text) {
		out.Text = strings.TrimRight(left.Text, " ") + " " + strings.TrimLeft(right.Text, " ")
	} else {
		out.Text = left.Text + right.Text
	}
	end := math.Max(left.X+left.Width, right.X+right.Width)
	out.Width = end - left.X
	out.Height = math.Max(left.Height, right.Height)
	out.EndOfLine = left.EndOfLine || right.EndOfLine
	return out
}

// needsSpace 合并边界跨越冒号、逗号、竖线、句点或项目符号时补一个空格
func needsSpace(left, right string) bool {
	l := strings.TrimRight(left, " ")
	r := strings.TrimLeft(right, " ")
	if l == "" || r == "" || len(l) != len(left) || len(r) != len(right) {
		// 任一侧已自带空白时保持原样
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(l)
	first, _ := utf8.DecodeRuneInString(r)
	if strings.ContainsRune(junctionMarks, last) || normalize.IsGlyphBullet(last) {
		return true
	}
	return first == '|' || normalize.IsGlyphBullet(first)
}
