package fields

import (
	"regexp"
	"strings"

	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/scoring"
)

var (
	phoneRe = regexp.MustCompile(`\+\d{1,3}(?:[\s.\-]?\(?\d{1,4}\)?){2,4}|(?:\(\d{3}\)|\b\d{3})[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)
	// phoneFormattedRe 带分隔符的规范写法加分
	phoneFormattedRe = regexp.MustCompile(`(?:\(\d{3}\)\s?|\d{3}[\s.\-])\d{3}[\s.\-]\d{4}|\+\d{1,3}[\s.\-]\d`)
	// contactSplitRe 联系方式行的分隔符，不拆逗号以保留 "City, ST"
	contactSplitRe = regexp.MustCompile(`\s*[|•·▪]\s*|\t+|\s{3,}|\s+[-–—]\s+`)

	nameLikeRe   = regexp.MustCompile(`^[\p{L}][\p{L}.'\-]*(?:\s+[\p{L}][\p{L}.'\-]*){1,3}$`)
	strictNameRe = regexp.MustCompile(`^[A-Z][a-z]+(?:\s[A-Z]\.)?\s[A-Z][a-z]+(?:-[A-Z][a-z]+)?$`)
	contactLabel = regexp.MustCompile(`(?i)^(?:e-?mail|phone|tel|mobile|cell|contact|address|website|web|linkedin|github)\s*[:：]\s*`)

	capitalizedRe = regexp.MustCompile(`^[A-Z0-9][\p{L}\d&.'\-]*(?:\s+(?:[A-Z0-9][\p{L}\d&.'\-]*|&|of|and|the|for|de|la|du))*$`)

	gpaLabelRe = regexp.MustCompile(`(?i)(?:c?gpa|grade point average)\s*[:\-]?\s*([0-4]\.\d{1,2})\b`)
	gpaRe      = regexp.MustCompile(`(?:^|[^\d.])([0-4]\.\d{1,2})(?:$|[^\d.])`)
	gpaWordRe  = regexp.MustCompile(`(?i)\b(?:c?gpa|grade point)`)

	degreeRe = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(bachelor(?:'s)?|master(?:'s)?|associate(?:'s)?|doctor(?:ate)?|ph\.?\s?d\.?|m\.?b\.?a\.?|b\.?\s?s\.?c?\.?|b\.?\s?a\.?|m\.?\s?s\.?c?\.?|m\.?\s?a\.?|b\.?\s?eng\.?|m\.?\s?eng\.?|b\.?\s?tech\.?|m\.?\s?tech\.?|b\.?\s?e\.?|m\.?\s?e\.?|diploma|ged|j\.?d\.?|a\.?\s?a\.?s?\.?)(?:$|[^\p{L}])`)
	degreeOfRe  = regexp.MustCompile(`(?i)^\s*(?:degree\s+)?of\s+(arts|science|engineering|business administration|fine arts|laws|technology|education|commerce|applied science)\b`)
	areaPrefix  = regexp.MustCompile(`(?i)^[\s,:\-–—]*(?:degree\s+)?(?:in\s+|of\s+)?`)
	coursesRe   = regexp.MustCompile(`(?i)^(?:relevant\s+)?course(?:work|s)?\s*[:\-–]\s*(.+)$`)
	categoryRe  = regexp.MustCompile(`^([^:：]{1,40})[:：]\s*(.+)$`)
	issuerRe    = regexp.MustCompile(`(?i)\b(?:issued\s+by|issuer|provider|organi[sz]ation|issuing\s+body|awarded\s+by|by)\b\s*[:\-]?\s*(.+)$`)
	languageRe  = regexp.MustCompile(`^([\p{L}][\p{L} ]*?)\s*(?:\(([^)]+)\)|[\-–—:]\s*(.+))?$`)
	parenthesis = regexp.MustCompile(`\s*\([^)]*\)`)
)

var (
	institutionWords = []string{"college", "university", "institute", "school", "academy", "polytechnic", "conservatory", "univ."}
	companySuffixes  = []string{"inc", "inc.", "llc", "ltd", "ltd.", "corp", "corp.", "corporation", "company", "co.", "group", "technologies", "labs", "solutions", "systems", "gmbh", "plc", "partners", "consulting", "studio", "studios", "agency", "bank", "foundation"}
	projectWords     = []string{"app", "application", "system", "platform", "website", "site", "tool", "engine", "api", "bot", "game", "library", "framework", "dashboard", "service", "tracker", "clone", "compiler", "pipeline", "plugin", "extension", "parser", "model", "simulator", "analyzer"}
	fluencyWords     = []string{"native", "fluent", "bilingual", "proficient", "professional", "conversational", "intermediate", "basic", "beginner", "elementary", "advanced", "working", "limited", "full"}

	institutionRe = scoring.WordsPattern(institutionWords)
	companyRe     = scoring.WordsPattern(companySuffixes)
	roleRePlural  = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:` + strings.Join(normalize.RoleNouns, "|") + `)s?(?:$|[^\p{L}])`)
	projectWordRe = scoring.WordsPattern(projectWords)
	techRe        = scoring.WordsPattern(normalize.TechTerms)
	skillMarkRe   = scoring.WordsPattern(normalize.SkillMarkers)
	fluencyRe     = scoring.WordsPattern(fluencyWords)
)

// 阈值
const (
	emailThreshold       = 4
	phoneThreshold       = 4
	locationThreshold    = 4
	urlThreshold         = 4
	nameThreshold        = 3
	dateThreshold        = 2
	titleThreshold       = 3
	companyThreshold     = 2
	institutionThreshold = 4
	degreeThreshold      = 4
	gpaThreshold         = 4
	projectNameThreshold = 2

	maxHighlights = 8
)

func hasAt(s string) bool { return strings.Contains(s, "@") }

func wordCount(s string) int { return len(strings.Fields(s)) }

// dateFeatures 日期区间识别
func dateFeatures() []scoring.FeatureSet {
	return []scoring.FeatureSet{
		{
			Name:     "date-range",
			Weight:   3,
			Captures: true,
			Test: func(line string) (bool, string) {
				m := normalize.FindDateRange(line)
				return m != "", m
			},
		},
		scoring.Predicate("month-year", func(s string) bool {
			return normalize.HasMonthName(s) && normalize.HasYear(s)
		}, 2),
		{
			Name:     "present",
			Weight:   2,
			Captures: false,
			Test: func(line string) (bool, string) {
				return normalize.IsPresent(line) && normalize.HasDate(line), ""
			},
		},
		{
			Name:     "year",
			Weight:   1,
			Captures: true,
			Test: func(line string) (bool, string) {
				m := normalize.FindDate(line)
				return m != "", m
			},
		},
	}
}

// titleFeatures 职位识别
func titleFeatures(claimed ...string) []scoring.FeatureSet {
	return []scoring.FeatureSet{
		scoring.CapturePredicate("role-noun", roleRePlural.MatchString, 3),
		scoring.Predicate("digits", normalize.HasDigit, -4),
		scoring.Predicate("too-long", func(s string) bool { return wordCount(s) > 8 }, -4),
		scoring.Predicate("company-suffix", companyRe.MatchString, -2),
		scoring.Exclude("claimed", claimed...),
	}
}

// companyFeatures 公司名识别，已被职位或日期占用的片段强负权重
func companyFeatures(claimed ...string) []scoring.FeatureSet {
	return []scoring.FeatureSet{
		scoring.CapturePredicate("capitalized", capitalizedRe.MatchString, 2),
		scoring.Predicate("suffix", companyRe.MatchString, 2),
		scoring.Predicate("digits", normalize.HasDigit, -2),
		scoring.Predicate("too-long", func(s string) bool { return wordCount(s) > 8 }, -2),
		scoring.Predicate("bullet", normalize.IsBullet, -4),
		scoring.Exclude("claimed", claimed...),
	}
}
