// Package fields 从章节中抽取结构化字段
//
// 每个字段由一组带权重的特征打分选出，低于阈值时视为未找到。
// 抽取过程不返回错误：章节缺失或内容不可识别时对应字段为空。
package fields

import (
	"context"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/section"
	"resume-parser-go/internal/semantic"
	"resume-parser-go/internal/subsection"
	"resume-parser-go/internal/types"
)

// Builder 结构化简历组装器，无状态，可并发使用
type Builder struct {
	classifier    semantic.Classifier
	minConfidence float64
	gapMultiplier float64
	logger        zerolog.Logger
}

// Option 配置项
type Option func(*Builder)

// WithClassifier 姓名识别的最后兜底
func WithClassifier(c semantic.Classifier, minConfidence float64) Option {
	return func(b *Builder) {
		b.classifier = semantic.OrNoop(c)
		if minConfidence > 0 {
			b.minConfidence = minConfidence
		}
	}
}

// WithGapMultiplier 几何模式下条目切分的行距倍数
func WithGapMultiplier(m float64) Option {
	return func(b *Builder) { b.gapMultiplier = m }
}

// WithLogger 设置日志
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder 创建组装器
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		classifier:    semantic.Noop{},
		minConfidence: section.DefaultMinConfidence,
		gapMultiplier: subsection.DefaultGapMultiplier,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build 便捷入口
func Build(ctx context.Context, blocks []types.SectionBlock, opts ...Option) *types.StructuredResume {
	return NewBuilder(opts...).Build(ctx, blocks)
}

// Build 按章节分派抽取器，结果归调用方所有
func (b *Builder) Build(ctx context.Context, blocks []types.SectionBlock) *types.StructuredResume {
	resume := types.NewStructuredResume()
	basics := &basicsExtractor{classifier: b.classifier, minConfidence: b.minConfidence}
	resume.Basics = basics.extract(ctx, blocks)

	for _, blk := range blocks {
		switch blk.ID {
		case types.SectionExperience:
			resume.Work = append(resume.Work, extractWork(b.entries(blk))...)
		case types.SectionVolunteer:
			resume.Volunteer = append(resume.Volunteer, extractVolunteer(b.entries(blk))...)
		case types.SectionEducation:
			resume.Education = append(resume.Education, extractEducation(b.entries(blk))...)
		case types.SectionProjects:
			resume.Projects = append(resume.Projects, extractProjects(b.entries(blk))...)
		case types.SectionCertificates:
			resume.Certificates = append(resume.Certificates, extractCertificates(b.credentialEntries(blk))...)
		case types.SectionAwards:
			resume.Awards = append(resume.Awards, extractAwards(b.credentialEntries(blk))...)
		case types.SectionSkills:
			resume.Skills = append(resume.Skills, extractSkills(blk.Lines)...)
		case types.SectionLanguages:
			resume.Languages = append(resume.Languages, extractLanguages(blk.Lines)...)
		}
	}

	b.logger.Debug().
		Bool("has_name", resume.Basics.Name != "").
		Int("work", len(resume.Work)).
		Int("education", len(resume.Education)).
		Int("skills", len(resume.Skills)).
		Int("projects", len(resume.Projects)).
		Msg("字段抽取完成")
	return resume
}

// entries 有几何信息时按行距切分，否则按空行与项目符号切分
func (b *Builder) entries(blk types.SectionBlock) [][]string {
	if blk.HasRawLines() {
		return subsection.Texts(subsection.Divide(blk.RawLines, subsection.WithGapMultiplier(b.gapMultiplier)))
	}
	return subsection.DivideText(blk.Lines)
}

func (b *Builder) credentialEntries(blk types.SectionBlock) [][]string {
	if blk.HasRawLines() {
		return b.entries(blk)
	}
	return certificateEntries(blk.Lines)
}
