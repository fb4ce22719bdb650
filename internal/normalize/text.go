package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// bulletGlyphs 独立即可视为项目符号的字形
var bulletGlyphs = map[rune]bool{
	'•': true, '·': true, '▪': true, '‣': true, '◦': true, '●': true,
	'○': true, '■': true, '□': true, '➢': true, '►': true, '▸': true,
	'✓': true, '✔': true, '◆': true, '❖': true, '⁃': true, '∙': true,
	'\uf0b7': true,
}

// spacedBullets 后面跟空白才算项目符号
var spacedBullets = map[rune]bool{'-': true, '*': true, '–': true, '—': true, '>': true}

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	segmentRe  = regexp.MustCompile(`\s+[|•·▪]\s+|\s*\|\s*|\s+[-–—]\s+|,\s+|\s+at\s+|\s+@\s+|\t+|\s{3,}`)
	tokenizeRe = regexp.MustCompile(`[,;•·▪|\t]|\s{3,}`)
)

// Text 统一 Unicode 形式：NFKC 展开连字，替换不换行空格，去除零宽字符
func Text(s string) string {
	s = norm.NFKC.String(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u00a0', '\u2007', '\u202f':
			return ' '
		case '\u200b', '\u200c', '\u200d', '\ufeff', '\u00ad':
			return -1
		}
		return r
	}, s)
}

// NFC 规范化为 NFC 形式
func NFC(s string) string {
	return norm.NFC.String(s)
}

// CollapseSpaces 合并连续空白并去掉首尾空白
func CollapseSpaces(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// IsBulletGlyph 文本本身是否只是一个项目符号
func IsBulletGlyph(s string) bool {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return bulletGlyphs[r] || spacedBullets[r]
}

// IsGlyphBullet 是否为专用项目符号字形（不含 - * 等 ASCII 符号）
func IsGlyphBullet(r rune) bool {
	return bulletGlyphs[r]
}

// IsBullet 行是否以项目符号开头
func IsBullet(line string) bool {
	s := strings.TrimSpace(line)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return false
	}
	if bulletGlyphs[r] {
		return true
	}
	if spacedBullets[r] {
		next, _ := utf8.DecodeRuneInString(s[size:])
		return next == ' ' || next == '\t'
	}
	return false
}

// StripBullet 去掉行首的项目符号
func StripBullet(line string) string {
	s := strings.TrimSpace(line)
	for IsBullet(s) {
		_, size := utf8.DecodeRuneInString(s)
		s = strings.TrimSpace(s[size:])
	}
	return s
}

// RepairHyphenation 拼接折行：前一行以“字母-”结尾且后一行以小写开头时去掉连字符直接拼接
func RepairHyphenation(prev, next string) string {
	prev = strings.TrimRightFunc(prev, unicode.IsSpace)
	next = strings.TrimSpace(next)
	if prev == "" {
		return next
	}
	if next == "" {
		return prev
	}
	if strings.HasSuffix(prev, "-") && len(prev) > 1 {
		before, _ := utf8.DecodeLastRuneInString(prev[:len(prev)-1])
		first, _ := utf8.DecodeRuneInString(next)
		if unicode.IsLetter(before) && unicode.IsLower(first) {
			return prev[:len(prev)-1] + next
		}
	}
	return prev + " " + next
}

// JoinWrapped 按折行规则拼接多行
func JoinWrapped(lines []string) string {
	out := ""
	for _, l := range lines {
		out = RepairHyphenation(out, l)
	}
	return out
}

// Segments 按标题行常见分隔符切分（| • - , at @ 制表符 长空白）
func Segments(line string) []string {
	parts := segmentRe.Split(line, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(CollapseSpaces(p), " ,;|")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Tokenize 按列表分隔符（逗号 分号 项目符号 竖线）切分
func Tokenize(line string) []string {
	parts := tokenizeRe.Split(StripBullet(line), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(CollapseSpaces(p), " .:-–—")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Words 按空白切词
func Words(s string) []string {
	return strings.Fields(s)
}

// UppercaseRatio 字母中大写字母的占比
func UppercaseRatio(s string) float64 {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// IsAllUpper 含字母且所有字母均为大写
func IsAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// TitleCaseRatio 含字母的单词中首字母大写的占比
func TitleCaseRatio(s string) (ratio float64, words int) {
	title := 0
	for _, w := range strings.Fields(s) {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsLetter(r) {
			continue
		}
		words++
		if unicode.IsUpper(r) {
			title++
		}
	}
	if words == 0 {
		return 0, 0
	}
	return float64(title) / float64(words), words
}

// LowerKey 去重用的归一化键
func LowerKey(s string) string {
	return strings.ToLower(CollapseSpaces(s))
}

// HasDigit 是否包含数字
func HasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// MaxDigitRun 最长连续数字串长度
func MaxDigitRun(s string) int {
	best, cur := 0, 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 0
		}
	}
	return best
}
