package normalize

// RoleNouns 常见职位名词，用于职位识别以及排除误判的章节标题
var RoleNouns = []string{
	"engineer", "developer", "manager", "intern", "analyst", "designer",
	"consultant", "director", "lead", "architect", "scientist", "specialist",
	"coordinator", "administrator", "assistant", "associate", "officer",
	"technician", "teacher", "researcher", "accountant", "president", "founder",
	"co-founder", "programmer", "representative", "supervisor", "executive",
	"strategist", "editor", "writer", "nurse", "instructor", "tutor", "head",
	"vp", "cto", "ceo", "owner", "fellow", "contractor", "freelancer", "advisor",
}

// TechTerms 技术栈词汇，出现时降低地点识别的权重
var TechTerms = []string{
	"javascript", "typescript", "python", "java", "golang", "react", "node",
	"node.js", "sql", "aws", "docker", "kubernetes", "html", "css", "c++", "c#",
	"ruby", "rails", "django", "flask", "spring", "angular", "vue", "linux",
	"git", "azure", "gcp", "graphql", "redis", "mongodb", "postgresql", "mysql",
}

// SkillMarkers 技能章节常见的词
var SkillMarkers = []string{
	"skills", "languages", "frameworks", "tools", "technologies", "proficient",
	"libraries", "databases", "platforms",
}
