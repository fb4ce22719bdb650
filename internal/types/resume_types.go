package types

// StructuredResume 解析管线的最终输出，字段命名与 JSON-Resume 保持一致
// 缺失字段一律省略，不做占位填充
type StructuredResume struct {
	Basics       Basics        `json:"basics"`
	Work         []Work        `json:"work"`
	Volunteer    []Volunteer   `json:"volunteer,omitempty"`
	Education    []Education   `json:"education"`
	Awards       []Award       `json:"awards,omitempty"`
	Certificates []Certificate `json:"certificates"`
	Skills       []Skill       `json:"skills"`
	Languages    []Language    `json:"languages"`
	Projects     []Project     `json:"projects"`
}

// NewStructuredResume 返回各列表均为空切片的结果，保证 JSON 输出为 [] 而非 null
func NewStructuredResume() *StructuredResume {
	return &StructuredResume{
		Work:         []Work{},
		Education:    []Education{},
		Certificates: []Certificate{},
		Skills:       []Skill{},
		Languages:    []Language{},
		Projects:     []Project{},
	}
}

// Basics 联系人基本信息
type Basics struct {
	Name     string    `json:"name,omitempty"`
	Label    string    `json:"label,omitempty"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	URL      string    `json:"url,omitempty"`
	Summary  string    `json:"summary,omitempty"`
	Location *Location `json:"location,omitempty"`
	Profiles []Profile `json:"profiles,omitempty"`
}

// Location 地点
type Location struct {
	City        string `json:"city,omitempty"`
	Region      string `json:"region,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

// String 以 "City, Region" 形式输出
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	switch {
	case l.City != "" && l.Region != "":
		return l.City + ", " + l.Region
	case l.City != "":
		return l.City
	default:
		return l.Region
	}
}

// Profile 社交/代码托管主页
type Profile struct {
	Network  string `json:"network"`
	Username string `json:"username,omitempty"`
	URL      string `json:"url"`
}

// Work 工作经历条目
type Work struct {
	Name       string   `json:"name,omitempty"`
	Position   string   `json:"position,omitempty"`
	StartDate  string   `json:"startDate,omitempty"`
	EndDate    string   `json:"endDate,omitempty"`
	Location   string   `json:"location,omitempty"`
	URL        string   `json:"url,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
}

// Volunteer 志愿经历，结构与 Work 对应
type Volunteer struct {
	Organization string   `json:"organization,omitempty"`
	Position     string   `json:"position,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Highlights   []string `json:"highlights,omitempty"`
}

// Education 教育经历条目
type Education struct {
	Institution string   `json:"institution,omitempty"`
	StudyType   string   `json:"studyType,omitempty"`
	Area        string   `json:"area,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	Score       string   `json:"score,omitempty"`
	Courses     []string `json:"courses,omitempty"`
}

// Skill 技能
type Skill struct {
	Name string `json:"name"`
}

// Project 项目经历
type Project struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
	URL         string   `json:"url,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
}

// Certificate 证书
type Certificate struct {
	Name   string `json:"name,omitempty"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Award 奖项
type Award struct {
	Title   string `json:"title,omitempty"`
	Date    string `json:"date,omitempty"`
	Awarder string `json:"awarder,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Language 语言能力
type Language struct {
	Language string `json:"language"`
	Fluency  string `json:"fluency,omitempty"`
}
