package storage

import "time"

// ResumeUploadMessage 简历上传后投递给解析消费者的消息
type ResumeUploadMessage struct {
	SubmissionUUID      string    `json:"submission_uuid"`
	SubmissionTimestamp time.Time `json:"submission_timestamp"`
	SourceChannel       string    `json:"source_channel,omitempty"`
	OriginalFilename    string    `json:"original_filename"`
	OriginalFilePathOSS string    `json:"original_file_path_oss"` // MinIO 对象键
	RawFileMD5          string    `json:"raw_file_md5,omitempty"` // 失败时用于回滚去重记录
}

// ResumeParsedEvent 解析完成后经 outbox 发布的事件
type ResumeParsedEvent struct {
	SubmissionUUID string    `json:"submission_uuid"`
	Status         string    `json:"status"`
	CandidateName  string    `json:"candidate_name,omitempty"`
	Email          string    `json:"email,omitempty"`
	SectionIDs     []string  `json:"section_ids,omitempty"`
	OCRUsed        bool      `json:"ocr_used"`
	ParsedAt       time.Time `json:"parsed_at"`
}
