package fields

import (
	"strings"

	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/scoring"
	"resume-parser-go/internal/types"
)

// entryHeader 条目头部（前 1~3 行）的识别结果
type entryHeader struct {
	position string
	company  string
	location string
	dates    normalize.DateRange
	hasDates bool
	// consumed 头部实际占用的行数
	consumed int
}

type segment struct {
	text string
	line int
}

// parseHeader 对条目前三行分别识别日期、地点、职位与公司
func parseHeader(lines []string) entryHeader {
	var h entryHeader
	n := 0
	for n < len(lines) && n < 3 && !normalize.IsBullet(lines[n]) {
		n++
	}
	if n == 0 {
		return h
	}
	header := lines[:n]
	used := -1
	mark := func(i int) {
		if i > used {
			used = i
		}
	}

	dateRaw := ""
	if c, ok := scoring.Select(header, dateFeatures(), scoring.Options{Threshold: dateThreshold, PreferCapture: true}); ok {
		if dr, ok := normalize.ParseDateRange(c.Line); ok {
			h.dates, h.hasDates = dr, true
			dateRaw = dr.Raw
			mark(c.Index)
		}
	}

	var segs []segment
	for i, line := range header {
		clean := line
		if h.location == "" {
			if loc, raw := normalize.FindLocation(clean); loc != nil {
				h.location = loc.String()
				clean = strings.Replace(clean, raw, " ", 1)
				mark(i)
			}
		}
		clean = normalize.RemoveDates(clean)
		for _, s := range normalize.Segments(clean) {
			segs = append(segs, segment{text: s, line: i})
		}
	}
	texts := make([]string, len(segs))
	for i, s := range segs {
		texts[i] = s.text
	}

	if c, ok := scoring.Select(texts, titleFeatures(dateRaw), scoring.Options{Threshold: titleThreshold}); ok {
		h.position = c.Result()
		mark(segs[c.Index].line)
	}
	if c, ok := scoring.Select(texts, companyFeatures(h.position, dateRaw), scoring.Options{Threshold: companyThreshold}); ok {
		h.company = c.Result()
		mark(segs[c.Index].line)
	}
	h.consumed = used + 1
	return h
}

// entryBody 条目正文：一行概述加最多 8 条要点；没有项目符号时正文各行即为要点
func entryBody(lines []string) (summary string, highlights []string) {
	hasBullets := false
	for _, l := range lines {
		if normalize.IsBullet(l) {
			hasBullets = true
			break
		}
	}
	if !hasBullets {
		for _, l := range lines {
			if l = strings.TrimSpace(l); l != "" && len(highlights) < maxHighlights {
				highlights = append(highlights, l)
			}
		}
		return "", highlights
	}

	var lead []string
	inBullets := false
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		switch {
		case normalize.IsBullet(l):
			inBullets = true
			highlights = append(highlights, normalize.StripBullet(l))
		case inBullets:
			// 折行续接到上一条要点
			last := len(highlights) - 1
			highlights[last] = normalize.RepairHyphenation(highlights[last], l)
		default:
			lead = append(lead, l)
		}
	}
	if len(highlights) > maxHighlights {
		highlights = highlights[:maxHighlights]
	}
	return normalize.JoinWrapped(lead), highlights
}

func firstURL(lines []string) string {
	for _, l := range lines {
		if hasAt(l) {
			continue
		}
		if urls := normalize.FindURLs(l); len(urls) > 0 {
			return normalize.NormalizeURL(urls[0])
		}
	}
	return ""
}

// extractWork 每个条目识别一段工作经历，什么都没识别到的条目丢弃
func extractWork(entries [][]string) []types.Work {
	out := []types.Work{}
	for _, lines := range entries {
		if len(lines) == 0 {
			continue
		}
		h := parseHeader(lines)
		summary, highlights := entryBody(lines[h.consumed:])
		w := types.Work{
			Name:       h.company,
			Position:   h.position,
			Location:   h.location,
			URL:        firstURL(lines),
			Summary:    summary,
			Highlights: highlights,
		}
		if h.hasDates {
			w.StartDate, w.EndDate = h.dates.Start, h.dates.End
		}
		if w.Name == "" && w.Position == "" && !h.hasDates && len(w.Highlights) == 0 {
			continue
		}
		out = append(out, w)
	}
	return out
}

// extractVolunteer 志愿经历与工作经历同构
func extractVolunteer(entries [][]string) []types.Volunteer {
	var out []types.Volunteer
	for _, w := range extractWork(entries) {
		out = append(out, types.Volunteer{
			Organization: w.Name,
			Position:     w.Position,
			StartDate:    w.StartDate,
			EndDate:      w.EndDate,
			Summary:      w.Summary,
			Highlights:   w.Highlights,
		})
	}
	return out
}
