// Package parser 把文档字节解码为版面：PDF 输出带坐标的片段，其余格式输出纯文本
package parser

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/types"
)

// Extractor 片段抽取器，无状态，可并发使用
type Extractor struct {
	flat   FlatPDFParser
	logger zerolog.Logger
}

// ExtractorOption 配置项
type ExtractorOption func(*Extractor)

// WithFlatPDFParser 几何抽取得不到字形时的备用解析器
func WithFlatPDFParser(p FlatPDFParser) ExtractorOption {
	return func(e *Extractor) { e.flat = p }
}

// WithExtractorLogger 设置日志
func WithExtractorLogger(l zerolog.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor 创建片段抽取器
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract 按格式解码；不支持的格式返回 ErrUnsupportedFormat，无法解码返回 ErrCorruptDocument
func (e *Extractor) Extract(ctx context.Context, data []byte, format types.Format) (*types.Layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrCorruptDocument)
	}

	switch format {
	case types.FormatPDF:
		return e.extractPDF(ctx, data)
	case types.FormatDOCX:
		return docxLayout(data)
	case types.FormatDOC:
		if isDocxZip(data) {
			e.logger.Debug().Msg("doc 文件实际为 docx 压缩包")
			return docxLayout(data)
		}
		return types.FlatLayout(normalize.NFC(salvageDOC(data)), 0), nil
	case types.FormatText:
		text, err := decodePlainText(data)
		if err != nil {
			return nil, err
		}
		return types.FlatLayout(text, 0), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func docxLayout(data []byte) (*types.Layout, error) {
	text, err := extractDOCX(data)
	if err != nil {
		return nil, err
	}
	return types.FlatLayout(normalize.NFC(text), 0), nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (*types.Layout, error) {
	frags, pages, err := extractPDFFragments(data)
	if err != nil {
		return nil, err
	}
	for i := range frags {
		frags[i].Text = normalize.Text(frags[i].Text)
	}
	if len(frags) > 0 || e.flat == nil {
		e.logger.Debug().Int("pages", pages).Int("fragments", len(frags)).Msg("PDF 几何抽取完成")
		return types.GeometricLayout(frags, pages), nil
	}

	// 没有可定位的字形，退回整文档文本
	text, err := e.flat.ParseText(ctx, data, "resume.pdf")
	if err != nil {
		e.logger.Warn().Err(err).Msg("PDF 纯文本抽取失败，交由质量门槛处理")
		return types.GeometricLayout(nil, pages), nil
	}
	return types.FlatLayout(normalize.NFC(text), pages), nil
}
