package parser

import "unicode"

// Quality 抽取文本的质量指标
type Quality struct {
	Chars          int     `json:"chars"`
	NonASCIIRatio  float64 `json:"non_ascii_ratio"`
	PrintableRatio float64 `json:"printable_ratio"`
}

// MeasureQuality 统计非空白字符数、非 ASCII 占比与可打印字符占比
func MeasureQuality(text string) Quality {
	var q Quality
	var nonASCII, printable int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		q.Chars++
		if r > unicode.MaxASCII {
			nonASCII++
		}
		if unicode.IsPrint(r) && r != unicode.ReplacementChar {
			printable++
		}
	}
	if q.Chars > 0 {
		q.NonASCIIRatio = float64(nonASCII) / float64(q.Chars)
		q.PrintableRatio = float64(printable) / float64(q.Chars)
	}
	return q
}

// Acceptable 文本足够长且乱码比例不高
func (q Quality) Acceptable(minChars int, maxNonASCII float64) bool {
	return q.Chars >= minChars && q.NonASCIIRatio <= maxNonASCII
}
