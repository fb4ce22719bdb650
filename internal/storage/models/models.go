package models

import (
	"time"

	"gorm.io/datatypes"
)

// 简历提交的处理状态
const (
	StatusPendingParsing    = "PENDING_PARSING"
	StatusParsing           = "PARSING"
	StatusParsed            = "PARSED"
	StatusParseFailed       = "PARSE_FAILED"
	StatusUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

// ResumeSubmission 简历提交记录
type ResumeSubmission struct {
	SubmissionUUID      string    `gorm:"type:char(36);primaryKey"`
	SubmissionTimestamp time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_rs_submission_timestamp"`
	SourceChannel       string    `gorm:"type:varchar(100)"`
	OriginalFilename    string    `gorm:"type:varchar(255)"`
	OriginalFilePathOSS string    `gorm:"type:varchar(1024)"`
	RawFileMD5          string    `gorm:"type:char(32);index:idx_rs_raw_file_md5"`
	FileSize            int64
	ProcessingStatus    string    `gorm:"type:varchar(50);default:'PENDING_PARSING';index:idx_rs_processing_status"`
	ErrorMessage        string    `gorm:"type:text"`
	ParserVersion       string    `gorm:"type:varchar(50)"`
	CreatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	ParsedResume *ParsedResume `gorm:"foreignKey:SubmissionUUID;references:SubmissionUUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ResumeSubmission) TableName() string {
	return "resume_submissions"
}

// ParsedResume 一次解析的结构化结果
type ParsedResume struct {
	SubmissionUUID   string         `gorm:"type:char(36);primaryKey"`
	CandidateName    string         `gorm:"type:varchar(255);index:idx_pr_candidate_name"`
	Email            string         `gorm:"type:varchar(255);index:idx_pr_email"`
	Phone            string         `gorm:"type:varchar(50)"`
	ResumeJSON       datatypes.JSON `gorm:"type:json;not null"`
	SectionIDsJSON   datatypes.JSON `gorm:"type:json"`
	ValidationErrors datatypes.JSON `gorm:"type:json"`
	Format           string         `gorm:"type:varchar(20)"`
	LayoutKind       string         `gorm:"type:varchar(20)"`
	PageCount        int
	OCRUsed          bool
	DurationMS       int64
	CreatedAt        time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt        time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (ParsedResume) TableName() string {
	return "parsed_resumes"
}

// StringToJSON 将字符串转换为 datatypes.JSON
func StringToJSON(s string) datatypes.JSON {
	return datatypes.JSON(s)
}
