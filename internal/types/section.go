package types

// SectionID 简历逻辑区域的封闭分类
type SectionID string

const (
	SectionProfile      SectionID = "profile"
	SectionSummary      SectionID = "summary"
	SectionObjective    SectionID = "objective"
	SectionExperience   SectionID = "experience"
	SectionEducation    SectionID = "education"
	SectionSkills       SectionID = "skills"
	SectionProjects     SectionID = "projects"
	SectionCertificates SectionID = "certificates"
	SectionAwards       SectionID = "awards"
	SectionVolunteer    SectionID = "volunteer"
	SectionLanguages    SectionID = "languages"
	SectionOther        SectionID = "other"
)

// AllSectionIDs 按固定顺序列出全部章节标识
var AllSectionIDs = []SectionID{
	SectionProfile, SectionSummary, SectionObjective, SectionExperience,
	SectionEducation, SectionSkills, SectionProjects, SectionCertificates,
	SectionAwards, SectionVolunteer, SectionLanguages, SectionOther,
}

// Valid 是否属于封闭枚举
func (s SectionID) Valid() bool {
	for _, id := range AllSectionIDs {
		if id == s {
			return true
		}
	}
	return false
}

// SectionBlock 章节切分结果
// Heading 为首次出现的标题原文，隐式 profile 章节的 Heading 为空
type SectionBlock struct {
	ID       SectionID `json:"id"`
	Heading  string    `json:"heading"`
	Lines    []string  `json:"lines"`
	RawLines []Line    `json:"-"`
}

// HasRawLines 是否保留了几何行
func (b SectionBlock) HasRawLines() bool {
	return len(b.RawLines) > 0
}

// FindSection 返回第一个匹配 id 的章节
func FindSection(blocks []SectionBlock, id SectionID) (SectionBlock, bool) {
	for _, b := range blocks {
		if b.ID == id {
			return b, true
		}
	}
	return SectionBlock{}, false
}
