// Package subsection 把一个章节的行切分为独立条目（一段工作、一段学历……）
package subsection

import (
	"math"
	"strings"

	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/types"
)

// DefaultGapMultiplier 行距超过常规行距的倍数即视为条目分界
const DefaultGapMultiplier = 1.4

type config struct {
	multiplier float64
}

// Option 配置项
type Option func(*config)

// WithGapMultiplier 设置行距倍数，<=1 时忽略
func WithGapMultiplier(m float64) Option {
	return func(c *config) {
		if m > 1 {
			c.multiplier = m
		}
	}
}

// Divide 按行距切分几何行
// 行距直方图的众数作为常规行距；只得到一个条目时改用“非粗体 → 粗体”规则
func Divide(lines []types.Line, opts ...Option) [][]types.Line {
	cfg := config{multiplier: DefaultGapMultiplier}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(lines) == 0 {
		return nil
	}
	if len(lines) == 1 {
		return [][]types.Line{lines}
	}

	groups := splitAt(lines, gapBoundaries(lines, cfg.multiplier))
	if len(groups) > 1 {
		return groups
	}
	return splitAt(lines, boldBoundaries(lines))
}

// LinePitch 相邻行首片段 Y 差值（取整）的众数，平票取较小值
func LinePitch(lines []types.Line) float64 {
	counts := make(map[float64]int)
	for i := 1; i < len(lines); i++ {
		gap := math.Round(lines[i].FirstY() - lines[i-1].FirstY())
		if gap > 0 {
			counts[gap]++
		}
	}
	pitch, best := 0.0, 0
	for gap, n := range counts {
		if n > best || (n == best && gap < pitch) {
			pitch, best = gap, n
		}
	}
	return pitch
}

func gapBoundaries(lines []types.Line, multiplier float64) []bool {
	boundaries := make([]bool, len(lines))
	pitch := LinePitch(lines)
	if pitch <= 0 {
		return boundaries
	}
	limit := pitch * multiplier
	for i := 1; i < len(lines); i++ {
		if lines[i].FirstY()-lines[i-1].FirstY() > limit {
			boundaries[i] = true
		}
	}
	return boundaries
}

func boldBoundaries(lines []types.Line) []bool {
	boundaries := make([]bool, len(lines))
	for i := 1; i < len(lines); i++ {
		if len(lines[i]) == 0 || normalize.IsBulletGlyph(lines[i][0].Text) {
			continue
		}
		if !lines[i-1].IsBold() && lines[i].IsBold() {
			boundaries[i] = true
		}
	}
	return boundaries
}

func splitAt(lines []types.Line, boundaries []bool) [][]types.Line {
	var groups [][]types.Line
	start := 0
	for i := 1; i < len(lines); i++ {
		if boundaries[i] {
			groups = append(groups, lines[start:i])
			start = i
		}
	}
	return append(groups, lines[start:])
}

// Texts 把几何分组转为文本分组
func Texts(groups [][]types.Line) [][]string {
	out := make([][]string, 0, len(groups))
	for _, g := range groups {
		texts := make([]string, 0, len(g))
		for _, l := range g {
			texts = append(texts, l.Text())
		}
		out = append(out, texts)
	}
	return out
}

// DivideText 纯文本的条目切分
// 空行分隔条目；没有空行时，项目符号段落之后出现的非折行、非项目符号行开启新条目。空行不输出
func DivideText(lines []string) [][]string {
	var (
		groups  [][]string
		current []string
	)
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			if len(current) > 0 {
				groups = append(groups, current)
				current = nil
			}
			continue
		}
		current = append(current, l)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	if len(groups) != 1 {
		return groups
	}

	only := groups[0]
	groups = nil
	start := 0
	inBullets := normalize.IsBullet(only[0])
	for i := 1; i < len(only); i++ {
		switch {
		case normalize.IsBullet(only[i]):
			inBullets = true
		case inBullets && isContinuation(only[i-1], only[i]):
		case inBullets:
			groups = append(groups, only[start:i])
			start = i
			inBullets = false
		}
	}
	return append(groups, only[start:])
}

// isContinuation 项目符号折行：上一行以连字符结尾，或本行以小写字母开头
func isContinuation(prev, line string) bool {
	prev = strings.TrimSpace(prev)
	line = strings.TrimSpace(line)
	if strings.HasSuffix(prev, "-") || strings.HasSuffix(prev, ",") {
		return true
	}
	r := []rune(line)
	return len(r) > 0 && r[0] >= 'a' && r[0] <= 'z'
}
