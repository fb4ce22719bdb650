package fields

import (
	"regexp"
	"strings"

	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/scoring"
	"resume-parser-go/internal/types"
)

// projectNameSplit 项目名后常跟技术栈或描述
var projectNameSplit = regexp.MustCompile(`\s+[|•·–—-]\s+|\s*[:(（]|\s+using\s+|\s+with\s+`)

func projectHead(line string) string {
	head := projectNameSplit.Split(normalize.StripBullet(line), 2)[0]
	return strings.Trim(normalize.CollapseSpaces(normalize.RemoveDates(head)), " ,.")
}

func projectFeatures() []scoring.FeatureSet {
	return []scoring.FeatureSet{
		{
			Name:     "head",
			Weight:   0,
			Captures: true,
			Test: func(line string) (bool, string) {
				h := projectHead(line)
				return h != "", h
			},
		},
		scoring.Predicate("capitalized", func(s string) bool {
			h := projectHead(s)
			ratio, n := normalize.TitleCaseRatio(h)
			return n > 0 && ratio >= 0.5
		}, 2),
		scoring.Predicate("domain-word", projectWordRe.MatchString, 1),
		scoring.Predicate("short", func(s string) bool { return wordCount(projectHead(s)) <= 8 }, 1),
		scoring.Predicate("bullet", normalize.IsBullet, -4),
		scoring.Predicate("sentence", func(s string) bool { return strings.HasSuffix(strings.TrimSpace(s), ".") }, -2),
		scoring.Predicate("date-only", func(s string) bool { return normalize.RemoveDates(s) == "" }, -10),
	}
}

// extractProjects 项目名取前两行中得分最高者，其余非项目符号行为描述
func extractProjects(entries [][]string) []types.Project {
	out := []types.Project{}
	for _, lines := range entries {
		if len(lines) == 0 {
			continue
		}
		var p types.Project
		head := lines
		if len(head) > 2 {
			head = head[:2]
		}
		nameLine := -1
		if c, ok := scoring.Select(head, projectFeatures(), scoring.Options{Threshold: projectNameThreshold}); ok {
			p.Name = c.Result()
			nameLine = c.Index
		}
		for _, l := range head {
			if dr, ok := normalize.ParseDateRange(l); ok {
				p.StartDate, p.EndDate = dr.Start, dr.End
				break
			}
		}

		var rest []string
		for i, l := range lines {
			if i == nameLine {
				// 名称之后的技术栈或说明并入描述
				if tail := strings.TrimSpace(strings.TrimPrefix(normalize.StripBullet(l), p.Name)); tail != "" {
					tail = strings.Trim(normalize.RemoveDates(tail), " |:-–—()")
					if tail != "" {
						rest = append(rest, tail)
					}
				}
				continue
			}
			if i < len(head) && normalize.RemoveDates(l) == "" {
				continue
			}
			if urls := normalize.FindURLs(l); len(urls) == 1 && urls[0] == strings.TrimSpace(l) {
				continue
			}
			rest = append(rest, l)
		}
		summary, highlights := entryBody(rest)
		hasBullets := false
		for _, l := range rest {
			if normalize.IsBullet(l) {
				hasBullets = true
				break
			}
		}
		if hasBullets {
			p.Description, p.Highlights = summary, highlights
		} else {
			p.Description = normalize.JoinWrapped(highlights)
		}
		p.URL = firstURL(lines)
		if p.Name == "" && p.Description == "" && len(p.Highlights) == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}
