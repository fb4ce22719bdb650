package fields

import (
	"context"
	"strings"

	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/scoring"
	"resume-parser-go/internal/section"
	"resume-parser-go/internal/semantic"
	"resume-parser-go/internal/types"
)

// contactCandidates 把联系方式行按 | • 制表符等切成片段
func contactCandidates(lines []string) []string {
	var out []string
	for _, line := range lines {
		for _, part := range contactSplitRe.Split(line, -1) {
			part = strings.TrimSpace(contactLabel.ReplaceAllString(strings.TrimSpace(part), ""))
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func emailFeatures() []scoring.FeatureSet {
	return []scoring.FeatureSet{
		scoring.Capture("email", normalize.EmailPattern(), 6),
	}
}

func phoneFeatures() []scoring.FeatureSet {
	return []scoring.FeatureSet{
		scoring.Capture("phone", phoneRe, 4),
		scoring.Match("formatted", phoneFormattedRe, 2),
		scoring.Predicate("long-digit-run", func(s string) bool { return normalize.MaxDigitRun(s) >= 11 }, -8),
		scoring.Predicate("at-sign", hasAt, -4),
	}
}

func locationFeatures() []scoring.FeatureSet {
	return []scoring.FeatureSet{
		{
			Name:     "city-state",
			Weight:   4,
			Captures: true,
			Test: func(line string) (bool, string) {
				loc, raw := normalize.FindLocation(line)
				return loc != nil, raw
			},
		},
		scoring.Predicate("tech-terms", techRe.MatchString, -4),
		scoring.Predicate("skill-markers", skillMarkRe.MatchString, -4),
		scoring.Predicate("at-sign", hasAt, -4),
	}
}

func urlFeatures() []scoring.FeatureSet {
	return []scoring.FeatureSet{
		{
			Name:     "personal-url",
			Weight:   4,
			Captures: true,
			Test: func(line string) (bool, string) {
				for _, u := range normalize.FindURLs(line) {
					if _, isProfile := normalize.ProfileFromURL(u); !isProfile {
						return true, u
					}
				}
				return false, ""
			},
		},
		scoring.Predicate("at-sign", hasAt, -8),
	}
}

func nameFeatures(first string, claimed []string) []scoring.FeatureSet {
	return []scoring.FeatureSet{
		scoring.CapturePredicate("name-like", nameLikeRe.MatchString, 3),
		scoring.Predicate("capitalized", func(s string) bool {
			ratio, _ := normalize.TitleCaseRatio(s)
			return ratio == 1
		}, 1),
		scoring.Predicate("first-line", func(s string) bool { return s == first }, 1),
		scoring.Predicate("role-noun", roleRePlural.MatchString, -3),
		scoring.Predicate("heading", func(s string) bool {
			_, ok := section.MatchHeading(s)
			return ok
		}, -5),
		scoring.Predicate("digits", normalize.HasDigit, -5),
		scoring.Predicate("at-sign", hasAt, -5),
		scoring.Exclude("claimed", claimed...),
	}
}

// disallowedName 章节标题词汇、数字、@ 均不能作为姓名
func disallowedName(s string) bool {
	if s == "" || hasAt(s) || normalize.HasDigit(s) {
		return true
	}
	_, ok := section.MatchHeading(s)
	return ok
}

// looksLikeOrganization 机构、公司、技术词汇、职位
func looksLikeOrganization(s string) bool {
	return institutionRe.MatchString(s) || companyRe.MatchString(s) || techRe.MatchString(s) ||
		roleRePlural.MatchString(s) || normalize.HasMonthName(s)
}

type basicsExtractor struct {
	classifier    semantic.Classifier
	minConfidence float64
}

// extract 依次识别 email、电话、地点、链接，最后识别姓名
func (e *basicsExtractor) extract(ctx context.Context, blocks []types.SectionBlock) types.Basics {
	var basics types.Basics
	profileLines := headerLines(blocks)
	candidates := contactCandidates(profileLines)
	var claimed []string

	if c, ok := scoring.Select(candidates, emailFeatures(), scoring.Options{Threshold: emailThreshold, PreferCapture: true}); ok {
		basics.Email = c.Result()
		claimed = append(claimed, basics.Email)
	}
	if c, ok := scoring.Select(candidates, phoneFeatures(), scoring.Options{Threshold: phoneThreshold}); ok {
		basics.Phone = c.Result()
		claimed = append(claimed, basics.Phone)
	}
	if c, ok := scoring.Select(candidates, locationFeatures(), scoring.Options{Threshold: locationThreshold}); ok {
		if loc, raw := normalize.FindLocation(c.Result()); loc != nil {
			basics.Location = loc
			claimed = append(claimed, raw)
		}
	}
	if c, ok := scoring.Select(candidates, urlFeatures(), scoring.Options{Threshold: urlThreshold}); ok {
		basics.URL = normalize.NormalizeURL(c.Result())
		claimed = append(claimed, c.Result())
	}
	basics.Profiles = findProfiles(candidates)
	for _, p := range basics.Profiles {
		claimed = append(claimed, strings.TrimPrefix(p.URL, "https://"))
	}

	basics.Name = e.resolveName(ctx, candidates, claimed, blocks)
	if basics.Name != "" {
		claimed = append(claimed, basics.Name)
	}
	basics.Label = findLabel(candidates, claimed)
	if basics.Label != "" {
		claimed = append(claimed, basics.Label)
	}
	basics.Summary = findSummary(blocks, profileLines, claimed)
	return basics
}

// headerLines 联系方式所在的行，即首个标题之前的隐式 profile 章节
func headerLines(blocks []types.SectionBlock) []string {
	if b, ok := types.FindSection(blocks, types.SectionProfile); ok {
		return b.Lines
	}
	return nil
}

func findProfiles(candidates []string) []types.Profile {
	var profiles []types.Profile
	seen := make(map[string]bool)
	for _, c := range candidates {
		if hasAt(c) && len(normalize.FindURLs(c)) == 0 {
			continue
		}
		for _, u := range normalize.FindURLs(c) {
			p, ok := normalize.ProfileFromURL(u)
			if !ok || seen[strings.ToLower(p.URL)] {
				continue
			}
			seen[strings.ToLower(p.URL)] = true
			profiles = append(profiles, p)
		}
	}
	return profiles
}

// resolveName 规则打分 → 全文严格姓名模式 → 语义分类
func (e *basicsExtractor) resolveName(ctx context.Context, candidates, claimed []string, blocks []types.SectionBlock) string {
	first := ""
	if len(candidates) > 0 {
		first = candidates[0]
	}
	if c, ok := scoring.Select(candidates, nameFeatures(first, claimed), scoring.Options{Threshold: nameThreshold}); ok {
		name := normalize.CollapseSpaces(c.Result())
		if !disallowedName(name) {
			return name
		}
	}

	for _, b := range blocks {
		for _, line := range b.Lines {
			line = strings.TrimSpace(line)
			if strictNameRe.MatchString(line) && !disallowedName(line) && !looksLikeOrganization(line) && !isClaimed(line, claimed) {
				return line
			}
		}
	}

	if e.classifier == nil || ctx.Err() != nil {
		return ""
	}
	for _, c := range candidates {
		if disallowedName(c) || wordCount(c) > 4 || isClaimed(c, claimed) {
			continue
		}
		label, conf, err := e.classifier.Classify(ctx, c)
		if err != nil {
			return ""
		}
		if label == semantic.LabelName && conf >= e.minConfidence {
			return normalize.CollapseSpaces(c)
		}
	}
	return ""
}

func isClaimed(s string, claimed []string) bool {
	lower := strings.ToLower(s)
	for _, v := range claimed {
		if v != "" && strings.Contains(lower, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

// findLabel 姓名附近的职位行作为 label
func findLabel(candidates, claimed []string) string {
	for _, c := range candidates {
		if isClaimed(c, claimed) || normalize.HasDigit(c) || hasAt(c) || wordCount(c) > 6 {
			continue
		}
		if roleRePlural.MatchString(c) {
			return normalize.CollapseSpaces(c)
		}
	}
	return ""
}

// findSummary summary/objective 章节的正文；缺失时取 profile 中较长的句子
func findSummary(blocks []types.SectionBlock, profileLines, claimed []string) string {
	for _, id := range []types.SectionID{types.SectionSummary, types.SectionObjective} {
		if b, ok := types.FindSection(blocks, id); ok {
			if s := joinParagraph(b.Lines); s != "" {
				return s
			}
		}
	}
	var long []string
	for _, line := range profileLines {
		if wordCount(line) >= 8 && !isClaimed(line, claimed) && !hasAt(line) {
			long = append(long, strings.TrimSpace(line))
		}
	}
	return normalize.JoinWrapped(long)
}

// joinParagraph 把多行（含项目符号）拼成一段
func joinParagraph(lines []string) string {
	var parts []string
	for _, l := range lines {
		l = normalize.StripBullet(l)
		if l != "" {
			parts = append(parts, l)
		}
	}
	return normalize.JoinWrapped(parts)
}
