package parser

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"resume-parser-go/internal/types"
)

// InferFormat 先按扩展名判断，扩展名缺失或不认识时嗅探内容
func InferFormat(data []byte, filename string) types.Format {
	if f := types.FormatFromFilename(filename); f != types.FormatUnknown {
		return f
	}
	return SniffFormat(data)
}

// SniffFormat 按文件内容判断格式
func SniffFormat(data []byte) types.Format {
	if len(data) == 0 {
		return types.FormatUnknown
	}
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		switch {
		case m.Is("application/pdf"):
			return types.FormatPDF
		case m.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
			return types.FormatDOCX
		case m.Is("application/msword"), m.Is("application/x-ole-storage"):
			return types.FormatDOC
		case m.Is("application/zip"):
			// 部分 DOCX 只能识别为 zip
			if isDocxZip(data) {
				return types.FormatDOCX
			}
			return types.FormatUnknown
		case strings.HasPrefix(m.String(), "text/plain"):
			return types.FormatText
		}
	}
	return types.FormatUnknown
}
