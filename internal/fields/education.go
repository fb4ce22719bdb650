package fields

import (
	"strings"

	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/scoring"
	"resume-parser-go/internal/types"
)

func institutionFeatures() []scoring.FeatureSet {
	return []scoring.FeatureSet{
		scoring.CapturePredicate("institution", institutionRe.MatchString, 4),
		scoring.Predicate("degree", degreeRe.MatchString, -4),
		scoring.Predicate("digits", normalize.HasDigit, -3),
	}
}

func degreeFeatures(claimed ...string) []scoring.FeatureSet {
	return []scoring.FeatureSet{
		scoring.CapturePredicate("degree", degreeRe.MatchString, 4),
		scoring.Predicate("institution", institutionRe.MatchString, -4),
		scoring.Predicate("digits", normalize.HasDigit, -2),
		scoring.Exclude("claimed", claimed...),
	}
}

func gpaFeatures() []scoring.FeatureSet {
	return []scoring.FeatureSet{
		scoring.CaptureGroup("gpa-labeled", gpaLabelRe, 1, 2),
		scoring.CaptureGroup("gpa", gpaRe, 1, 4),
		scoring.Match("gpa-word", gpaWordRe, 2),
		scoring.Predicate("separators", func(s string) bool { return strings.ContainsAny(s, ",;") }, -2),
	}
}

// splitDegree 拆分学位类型与专业，如 "Bachelor of Science in Computer Science"
func splitDegree(degree string) (studyType, area string) {
	loc := degreeRe.FindStringSubmatchIndex(degree)
	if loc == nil {
		return strings.TrimSpace(degree), ""
	}
	end := loc[3]
	if m := degreeOfRe.FindStringIndex(degree[end:]); m != nil {
		end += m[1]
	}
	studyType = strings.TrimSpace(degree[:end])
	area = strings.TrimSpace(areaPrefix.ReplaceAllString(degree[end:], ""))
	area = strings.Trim(area, " ,.;")
	return studyType, area
}

// extractEducation 每个条目识别学校、学位、GPA、日期与课程
func extractEducation(entries [][]string) []types.Education {
	out := []types.Education{}
	for _, lines := range entries {
		if len(lines) == 0 {
			continue
		}
		var (
			e       types.Education
			segs    []string
			courses []string
		)
		for _, line := range lines {
			text := normalize.StripBullet(line)
			if m := coursesRe.FindStringSubmatch(text); m != nil {
				courses = append(courses, normalize.Tokenize(m[1])...)
				continue
			}
			if _, raw := normalize.FindLocation(text); raw != "" {
				text = strings.Replace(text, raw, " ", 1)
			}
			text = gpaLabelRe.ReplaceAllString(text, " ")
			segs = append(segs, normalize.Segments(normalize.RemoveDates(text))...)
		}

		if c, ok := scoring.Select(segs, institutionFeatures(), scoring.Options{Threshold: institutionThreshold}); ok {
			e.Institution = c.Result()
		}
		if c, ok := scoring.Select(segs, degreeFeatures(e.Institution), scoring.Options{Threshold: degreeThreshold}); ok {
			e.StudyType, e.Area = splitDegree(c.Result())
		}
		if c, ok := scoring.Select(lines, gpaFeatures(), scoring.Options{Threshold: gpaThreshold, PreferCapture: true}); ok && c.Captured {
			e.Score = c.Value
		}
		for _, line := range lines {
			if dr, ok := normalize.ParseDateRange(line); ok {
				e.StartDate, e.EndDate = dr.Start, dr.End
				break
			}
		}
		if len(courses) > 0 {
			e.Courses = dedupe(courses)
		}
		if e.Institution == "" && e.StudyType == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		key := normalize.LowerKey(it)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(it))
	}
	return out
}
