// Package processor 编排简历解析流水线，并在上传消费链路中持久化结果
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-parser-go/internal/fields"
	"resume-parser-go/internal/layout"
	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/section"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"
	"resume-parser-go/internal/validation"
)

var tracer = otel.Tracer("resume-parser-go/processor")

// ParseMeta 解析过程的元信息
type ParseMeta struct {
	Format           types.Format      `json:"format"`
	LayoutKind       types.LayoutKind  `json:"layout_kind"`
	PageCount        int               `json:"page_count"`
	OCRUsed          bool              `json:"ocr_used"`
	Quality          parser.Quality    `json:"quality"`
	SectionIDs       []types.SectionID `json:"section_ids"`
	ValidationErrors []string          `json:"validation_errors,omitempty"`
	DurationMS       int64             `json:"duration_ms"`
	Duration         time.Duration     `json:"-"`
}

// ParseResult 一份文档的解析结果
type ParseResult struct {
	Resume   *types.StructuredResume `json:"resume"`
	Sections []types.SectionBlock    `json:"sections,omitempty"`
	Meta     ParseMeta               `json:"meta"`
}

// ResumeParser 解析流水线，组件均无状态，可并发使用
type ResumeParser struct {
	extractor *parser.Extractor
	ocr       parser.OCRProvider
	validator OutputValidator
	segmenter *section.Segmenter
	builder   *fields.Builder
	set       Settings
	logger    zerolog.Logger
}

// NewResumeParser 由组件与设置创建解析器，opts 在 set 之上追加覆盖
func NewResumeParser(comp *Components, set *Settings, opts ...SettingOpt) *ResumeParser {
	if comp == nil {
		comp = &Components{}
	}
	if set == nil {
		set = DefaultSettings()
	}
	for _, opt := range opts {
		opt(set)
	}
	if set.MinTextLength <= 0 {
		set.MinTextLength = DefaultMinTextLength
	}
	if set.MaxNonASCIIRatio <= 0 {
		set.MaxNonASCIIRatio = DefaultMaxNonASCIIRatio
	}

	extractor := comp.Extractor
	if extractor == nil {
		extractor = parser.NewExtractor(parser.WithExtractorLogger(set.Logger))
	}

	segOpts := []section.Option{section.WithLogger(set.Logger)}
	fieldOpts := []fields.Option{fields.WithLogger(set.Logger)}
	if comp.Classifier != nil {
		segOpts = append(segOpts, section.WithClassifier(comp.Classifier, set.SectionConfidence))
		fieldOpts = append(fieldOpts, fields.WithClassifier(comp.Classifier, set.SectionConfidence))
	}
	if set.GapMultiplier > 0 {
		fieldOpts = append(fieldOpts, fields.WithGapMultiplier(set.GapMultiplier))
	}

	return &ResumeParser{
		extractor: extractor,
		ocr:       comp.OCR,
		validator: comp.Validator,
		segmenter: section.New(segOpts...),
		builder:   fields.NewBuilder(fieldOpts...),
		set:       *set,
		logger:    set.Logger.With().Str("component", "resume_parser").Logger(),
	}
}

// Parse 解析一份文档
// 仅抽取阶段的失败会返回错误；之后的各阶段只会让结果变得不完整
func (p *ResumeParser) Parse(ctx context.Context, data []byte, filename string) (*ParseResult, error) {
	ctx, span := tracer.Start(ctx, "ResumeParser.Parse", trace.WithAttributes(
		attribute.String("resume.filename", tracing.TruncateString(filename, 128)),
		attribute.Int("resume.size_bytes", len(data)),
	))
	defer span.End()

	start := time.Now()
	if err := ctx.Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeTimeout)
		return nil, err
	}
	if p.set.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.set.Timeout)
		defer cancel()
	}

	format := parser.InferFormat(data, filename)
	span.SetAttributes(attribute.String("resume.format", string(format)))

	doc, err := p.extractor.Extract(ctx, data, format)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExtract)
		return nil, NewExtractError("", err)
	}

	quality := parser.MeasureQuality(doc.PlainText())
	ocrUsed := false
	if !quality.Acceptable(p.set.MinTextLength, p.set.MaxNonASCIIRatio) {
		doc, quality, ocrUsed, err = p.reroute(ctx, data, filename, doc, quality)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeOCR)
			return nil, err
		}
	}

	var blocks []types.SectionBlock
	if doc.IsGeometric() {
		doc.Lines = layout.Reconstruct(doc.Fragments)
		blocks = p.segmenter.SegmentLines(ctx, doc.Lines)
	} else {
		blocks = p.segmenter.SegmentText(ctx, doc.Text)
	}
	resume := p.builder.Build(ctx, blocks)

	result := &ParseResult{
		Resume:   resume,
		Sections: blocks,
		Meta: ParseMeta{
			Format:     format,
			LayoutKind: doc.Kind,
			PageCount:  doc.PageCount,
			OCRUsed:    ocrUsed,
			Quality:    quality,
			SectionIDs: sectionIDs(blocks),
		},
	}
	result.Meta.ValidationErrors = p.validate(resume)
	result.Meta.Duration = time.Since(start)
	result.Meta.DurationMS = result.Meta.Duration.Milliseconds()

	span.SetAttributes(
		attribute.String("resume.layout_kind", string(doc.Kind)),
		attribute.Int("resume.page_count", doc.PageCount),
		attribute.Bool("resume.ocr_used", ocrUsed),
		attribute.Int("resume.section_count", len(blocks)),
		attribute.Int("resume.validation_errors", len(result.Meta.ValidationErrors)),
	)
	span.SetStatus(codes.Ok, "")

	p.logger.Debug().
		Str("format", string(format)).
		Str("layout", string(doc.Kind)).
		Int("sections", len(blocks)).
		Bool("ocr", ocrUsed).
		Dur("duration", result.Meta.Duration).
		Msg("简历解析完成")
	return result, nil
}

// reroute 质量门槛未通过时改走 OCR
// 未配置 OCR 或 OCR 失败但原文仍有内容时，沿用原版面继续解析
func (p *ResumeParser) reroute(ctx context.Context, data []byte, filename string, doc *types.Layout, q parser.Quality) (*types.Layout, parser.Quality, bool, error) {
	log := p.logger.With().Int("chars", q.Chars).Float64("non_ascii_ratio", q.NonASCIIRatio).Logger()
	if p.ocr == nil {
		log.Warn().Msg("抽取文本质量不足且未配置OCR，按原文继续解析")
		return doc, q, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, q, false, err
	}

	res, err := p.ocr.Recognize(ctx, data, filename)
	if err != nil {
		if q.Chars > 0 && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("OCR识别失败，按原文继续解析")
			return doc, q, false, nil
		}
		return nil, q, false, NewOCRError("", err)
	}

	text := normalize.NFC(res.Text)
	pages := res.PageCount
	if pages == 0 {
		pages = doc.PageCount
	}
	log.Info().Int("ocr_pages", pages).Msg("文本质量不足，已改用OCR结果")
	return types.FlatLayout(text, pages), parser.MeasureQuality(text), true, nil
}

func (p *ResumeParser) validate(resume *types.StructuredResume) []string {
	if p.validator == nil {
		return nil
	}
	err := p.validator.Validate(resume)
	if err == nil {
		return nil
	}
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		return ve.Messages()
	}
	return []string{fmt.Sprintf("(root): %v", err)}
}

func sectionIDs(blocks []types.SectionBlock) []types.SectionID {
	ids := make([]types.SectionID, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.ID)
	}
	return ids
}
