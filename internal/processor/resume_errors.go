package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrExtractionFailed   = errors.New("提取简历内容失败")
	ErrOCRFailed          = errors.New("OCR识别失败")
	ErrDownloadFailed     = errors.New("下载简历失败")
	ErrStoreFailed        = errors.New("保存解析结果失败")
	ErrUpdateStatusFailed = errors.New("更新简历状态失败")
	ErrInvalidMessage     = errors.New("无效的上传消息")
)

// ResumeParseError 包含详细错误信息的自定义错误
// Cause 保留底层错误，便于上层用 errors.Is 区分格式不支持与文档损坏
type ResumeParseError struct {
	SubmissionUUID string
	Op             string
	BaseErr        error
	Cause          error
	Detail         string
}

func (e *ResumeParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, UUID:%s): %s", e.BaseErr, e.Op, e.SubmissionUUID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, UUID:%s)", e.BaseErr, e.Op, e.SubmissionUUID)
}

func (e *ResumeParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.BaseErr}
	}
	return []error{e.BaseErr, e.Cause}
}

func newParseError(uuid, op string, base, cause error) error {
	e := &ResumeParseError{SubmissionUUID: uuid, Op: op, BaseErr: base, Cause: cause}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// 错误构造函数
func NewExtractError(uuid string, cause error) error {
	return newParseError(uuid, "extract", ErrExtractionFailed, cause)
}

func NewOCRError(uuid string, cause error) error {
	return newParseError(uuid, "ocr", ErrOCRFailed, cause)
}

func NewDownloadError(uuid string, cause error) error {
	return newParseError(uuid, "download", ErrDownloadFailed, cause)
}

func NewStoreError(uuid string, cause error) error {
	return newParseError(uuid, "store", ErrStoreFailed, cause)
}

func NewUpdateError(uuid string, cause error) error {
	return newParseError(uuid, "update_status", ErrUpdateStatusFailed, cause)
}

// IsRetryable 存储类错误可以重新投递，解析类错误重试无意义
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreFailed) || errors.Is(err, ErrUpdateStatusFailed)
}
