package section

import (
	"regexp"
	"strings"

	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/types"
)

type headingPattern struct {
	id types.SectionID
	re *regexp.Regexp
}

// headingPatterns 标题同义词库，整行匹配；顺序决定优先级
var headingPatterns = []headingPattern{
	{types.SectionVolunteer, anchored(`volunteer(?:ing)?(?: (?:experience|work|activities))?|community (?:service|involvement)|extracurricular(?: activities)?|leadership(?: (?:and|&) (?:activities|involvement))?|activities`)},
	{types.SectionLanguages, anchored(`languages?(?: skills)?|language proficiency|spoken languages`)},
	{types.SectionSummary, anchored(`(?:professional |career |executive |personal )?summary|summary of qualifications|about(?: me)?|overview|professional profile|career profile|(?:career )?highlights`)},
	{types.SectionObjective, anchored(`(?:career |professional |job )?objectives?|career goals?`)},
	{types.SectionProfile, anchored(`(?:contact|personal)(?: (?:information|info|details|data))?|contact me`)},
	{types.SectionExperience, anchored(`(?:work |professional |relevant |employment |career |industry |internship )?experiences?|(?:work|employment|career|professional) history|employment|work|internships?|positions held`)},
	{types.SectionEducation, anchored(`education(?: (?:and|&) (?:training|certifications?))?|academic (?:background|history|qualifications)|academics|educational background|qualifications`)},
	{types.SectionSkills, anchored(`(?:technical |core |key |professional |relevant |computer |it |soft )?skills(?: (?:and|&) (?:abilities|expertise|tools|interests|competencies))?|(?:core )?competencies|(?:areas of )?expertise|technologies|tech(?:nical)? stack|tools(?: (?:and|&) technologies)?|proficiencies|skill ?set`)},
	{types.SectionProjects, anchored(`(?:personal |academic |selected |key |side |notable |technical |relevant )?projects?(?: experience)?|portfolio`)},
	{types.SectionCertificates, anchored(`certifications?|certificates?|licen[sc]es?(?: (?:and|&) certifications?)?|certifications? (?:and|&) licen[sc]es?|(?:relevant )?courses|(?:relevant )?coursework|training|professional development`)},
	{types.SectionAwards, anchored(`awards?(?: (?:and|&) (?:honors|honours|achievements|recognition))?|honou?rs(?: (?:and|&) awards)?|achievements|accomplishments|recognition|scholarships`)},
	{types.SectionOther, anchored(`interests|hobbies(?: (?:and|&) interests)?|references(?: available upon request)?|publications|additional information|miscellaneous|other`)},
}

type keywordRoot struct {
	id    types.SectionID
	roots []string
}

// keywordRoots 标题中出现的词根，顺序决定优先级（volunteer experience 归为 volunteer）
var keywordRoots = []keywordRoot{
	{types.SectionVolunteer, []string{"volunteer", "extracurricular", "community"}},
	{types.SectionLanguages, []string{"language"}},
	{types.SectionCertificates, []string{"certif", "licens", "course"}},
	{types.SectionAwards, []string{"award", "honor", "honour", "achievement"}},
	{types.SectionExperience, []string{"experience", "employment", "job", "internship"}},
	{types.SectionProjects, []string{"project"}},
	{types.SectionEducation, []string{"education", "academic"}},
	{types.SectionSkills, []string{"skill", "competenc", "technolog", "expertise"}},
	{types.SectionSummary, []string{"summary", "about"}},
	{types.SectionObjective, []string{"objective"}},
	{types.SectionOther, []string{"interest", "hobbies", "publication", "reference"}},
}

// geometryRoots 几何模式下判定标题的固定词根
var geometryRoots = []string{
	"experience", "education", "project", "skill", "job", "course",
	"extracurricular", "objective", "summary", "award", "honor",
}

var (
	headingPrefixRe = regexp.MustCompile(`^[\s\d.)#*•·▪>\-–—]*`)
	letterSpaceAmp  = regexp.MustCompile(`^[\p{L} &]+$`)
	roleNounRe      = regexp.MustCompile(`(?i)\b(?:` + strings.Join(normalize.RoleNouns, "|") + `)s?\b`)
)

func anchored(body string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^(?:` + body + `)$`)
}

// CleanHeading 去掉标题前的编号/符号与结尾冒号
func CleanHeading(line string) string {
	s := headingPrefixRe.ReplaceAllString(strings.TrimSpace(line), "")
	s = strings.TrimRight(s, " :：")
	return normalize.CollapseSpaces(s)
}

// MatchHeading 用同义词库整行匹配标题
func MatchHeading(line string) (types.SectionID, bool) {
	s := CleanHeading(line)
	if s == "" {
		return "", false
	}
	for _, p := range headingPatterns {
		if p.re.MatchString(s) {
			return p.id, true
		}
	}
	return "", false
}

// KeywordSection 标题中包含的章节词根
func KeywordSection(line string) (types.SectionID, bool) {
	lower := strings.ToLower(line)
	for _, k := range keywordRoots {
		for _, root := range k.roots {
			if strings.Contains(lower, root) {
				return k.id, true
			}
		}
	}
	return "", false
}

func hasGeometryRoot(line string) bool {
	lower := strings.ToLower(line)
	for _, root := range geometryRoots {
		if strings.Contains(lower, root) {
			return true
		}
	}
	return false
}

// ResolveID 依次用同义词库、词根判定章节，均失败时归为 other
// 返回的置信度供语义纠正使用
func ResolveID(heading string) (types.SectionID, float64) {
	if id, ok := MatchHeading(heading); ok {
		return id, 1.0
	}
	if id, ok := KeywordSection(heading); ok {
		return id, 0.8
	}
	return types.SectionOther, 0.5
}
