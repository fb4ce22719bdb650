package fields

import (
	"strings"

	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/types"
)

const (
	maxSkillWords = 6
	maxSkillLen   = 60
)

// listTokens 逐行去掉项目符号和 "Category:" 前缀后按列表分隔符切分
func listTokens(lines []string) []string {
	var out []string
	for _, raw := range lines {
		l := normalize.StripBullet(raw)
		if l == "" {
			continue
		}
		if m := categoryRe.FindStringSubmatch(l); m != nil && !strings.Contains(m[1], ",") {
			l = m[2]
		}
		out = append(out, normalize.Tokenize(l)...)
	}
	return out
}

// extractSkills 句子式的长片段不当作技能
func extractSkills(lines []string) []types.Skill {
	out := []types.Skill{}
	seen := make(map[string]bool)
	for _, tok := range listTokens(lines) {
		if wordCount(tok) > maxSkillWords || len(tok) > maxSkillLen {
			continue
		}
		key := normalize.LowerKey(tok)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, types.Skill{Name: tok})
	}
	return out
}

// splitLanguage 支持 "English (Native)"、"Spanish - Fluent"、"French: B2"、"Native English"
func splitLanguage(tok string) (language, fluency string) {
	if m := languageRe.FindStringSubmatch(tok); m != nil {
		language = strings.TrimSpace(m[1])
		fluency = strings.TrimSpace(m[2])
		if fluency == "" {
			fluency = strings.TrimSpace(m[3])
		}
	} else if i := strings.IndexAny(tok, ":(-–—"); i > 0 {
		language = strings.TrimSpace(tok[:i])
		fluency = strings.Trim(strings.TrimSpace(tok[i:]), ":()-–— ")
	} else {
		language = tok
	}
	if fluency == "" {
		// 熟练度词与语言名写在一起
		var rest, level []string
		for _, w := range strings.Fields(language) {
			if fluencyRe.MatchString(w) {
				level = append(level, w)
			} else {
				rest = append(rest, w)
			}
		}
		if len(level) > 0 && len(rest) > 0 {
			language = strings.Join(rest, " ")
			fluency = strings.Join(level, " ")
		}
	}
	return language, fluency
}

func extractLanguages(lines []string) []types.Language {
	out := []types.Language{}
	seen := make(map[string]bool)
	for _, raw := range lines {
		l := normalize.StripBullet(raw)
		if l == "" {
			continue
		}
		// "Languages: English, Spanish" 整行前缀；"French: B2" 这种冒号属于单个条目
		if m := categoryRe.FindStringSubmatch(l); m != nil && strings.Contains(m[2], ",") {
			l = m[2]
		}
		for _, tok := range normalize.Tokenize(l) {
			language, fluency := splitLanguage(tok)
			if language == "" || wordCount(language) > 3 || normalize.HasDigit(language) {
				continue
			}
			key := normalize.LowerKey(language)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, types.Language{Language: language, Fluency: fluency})
		}
	}
	return out
}
