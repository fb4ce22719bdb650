package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

// dayPattern 月份名与年份之间可选的日，如 "March 15, 2020"
const dayPattern = `(?:\s+\d{1,2}(?:st|nd|rd|th)?)?`

// dateToken 单个日期：月份名+年、MM/YYYY、YYYY-MM、四位年份
// 月份名后的两位年份必须带撇号，否则与日无法区分
const dateToken = `(?:\b` + monthPattern + `\.?` + dayPattern + `,?\s*(?:\d{4}|['’]\d{2})\b` +
	`|\b(?:0?[1-9]|1[0-2])[/.\-](?:19|20)\d{2}\b` +
	`|\b(?:19|20)\d{2}[/.\-](?:0?[1-9]|1[0-2])\b` +
	`|\b(?:19|20)\d{2}\b)`

const presentPattern = `(?:present|current|currently|now|today|ongoing)`

var (
	dateTokenRe = regexp.MustCompile(`(?i)` + dateToken)
	// 日期区间，结束端允许 present 等词
	dateRangeRe = regexp.MustCompile(`(?i)(` + dateToken + `)\s*(?:-|–|—|~|\bto\b|\buntil\b|\bthrough\b)\s*(` + dateToken + `|\b` + presentPattern + `\b)`)
	presentRe   = regexp.MustCompile(`(?i)\b` + presentPattern + `\b`)
	monthYearRe = regexp.MustCompile(`(?i)\b(` + monthPattern + `)\.?` + dayPattern + `,?\s*(?:(\d{4})|['’](\d{2}))\b`)
	mmYYYYRe    = regexp.MustCompile(`\b(0?[1-9]|1[0-2])[/.\-]((?:19|20)\d{2})\b`)
	yyyyMMRe    = regexp.MustCompile(`\b((?:19|20)\d{2})[/.\-](0?[1-9]|1[0-2])\b`)
	yearRe      = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	monthNameRe = regexp.MustCompile(`(?i)\b` + monthPattern + `\b`)
)

var monthIndex = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// DateRange 解析后的日期区间
// Present 为 true 时 End 为空，表示至今
type DateRange struct {
	Raw     string
	Start   string
	End     string
	Present bool
}

// ParseDate 解析单个日期，month 为 0 表示只有年份
func ParseDate(s string) (year, month int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}
	if m := monthYearRe.FindStringSubmatch(s); m != nil {
		yearText := m[2]
		if yearText == "" {
			yearText = m[3]
		}
		y, ok := expandYear(yearText)
		if !ok {
			return 0, 0, false
		}
		return y, monthIndex[strings.ToLower(m[1])[:3]], true
	}
	if m := mmYYYYRe.FindStringSubmatch(s); m != nil {
		mo, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		return y, mo, true
	}
	if m := yyyyMMRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		return y, mo, true
	}
	if m := yearRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y, 0, true
	}
	return 0, 0, false
}

func expandYear(s string) (int, bool) {
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	switch len(s) {
	case 2:
		if y < 50 {
			return 2000 + y, true
		}
		return 1900 + y, true
	case 4:
		if y < 1900 || y > 2099 {
			return 0, false
		}
		return y, true
	default:
		return 0, false
	}
}

// NormalizeDate 转为 YYYY-MM；只有年份时为 YYYY；无法解析返回空串
func NormalizeDate(s string) string {
	y, m, ok := ParseDate(s)
	if !ok {
		return ""
	}
	if m == 0 {
		return fmt.Sprintf("%04d", y)
	}
	return fmt.Sprintf("%04d-%02d", y, m)
}

// IsPresent 是否表示“至今”
func IsPresent(s string) bool {
	return presentRe.MatchString(s)
}

// HasDateRange 行内是否包含日期区间
func HasDateRange(s string) bool {
	return dateRangeRe.MatchString(s)
}

// HasDate 行内是否包含任意日期
func HasDate(s string) bool {
	return dateTokenRe.MatchString(s)
}

// HasMonthName 行内是否出现月份名
func HasMonthName(s string) bool {
	return monthNameRe.MatchString(s)
}

// HasYear 行内是否包含四位年份
func HasYear(s string) bool {
	return yearRe.MatchString(s)
}

// FindDateRange 查找行内第一个日期区间的原文
func FindDateRange(s string) string {
	return dateRangeRe.FindString(s)
}

// FindDate 查找行内第一个日期的原文
func FindDate(s string) string {
	return dateTokenRe.FindString(s)
}

// ParseDateRange 解析日期区间；没有区间时退化为单个日期并作为结束日期
func ParseDateRange(s string) (DateRange, bool) {
	if m := dateRangeRe.FindStringSubmatch(s); m != nil {
		dr := DateRange{Raw: m[0], Start: NormalizeDate(m[1])}
		if IsPresent(m[2]) {
			dr.Present = true
		} else {
			dr.End = NormalizeDate(m[2])
		}
		return dr, dr.Start != "" || dr.End != "" || dr.Present
	}
	if tok := dateTokenRe.FindString(s); tok != "" {
		if d := NormalizeDate(tok); d != "" {
			return DateRange{Raw: tok, End: d}, true
		}
	}
	return DateRange{}, false
}

// RemoveDates 去掉行内的日期区间与日期，便于后续匹配其他字段
func RemoveDates(s string) string {
	s = dateRangeRe.ReplaceAllString(s, " ")
	s = dateTokenRe.ReplaceAllString(s, " ")
	return CollapseSpaces(strings.Trim(s, " ,|-–—()"))
}
