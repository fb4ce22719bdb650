package parser

import "errors"

var (
	// ErrUnsupportedFormat 无法识别或不支持的文档格式
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrCorruptDocument 文档无法解码（PDF 结构损坏、DOCX 压缩包损坏等）
	ErrCorruptDocument = errors.New("corrupt document")
	// ErrOCRUnavailable OCR 服务不可用
	ErrOCRUnavailable = errors.New("ocr service unavailable")
)
