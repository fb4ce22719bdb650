// Package section 把行序列切分为带标签的章节
//
// 提供两种策略：纯文本模式（DOCX、纯文本、OCR）与几何模式（PDF 重建后的行），
// 两者输出相同的 SectionBlock 结构，同一章节多次出现时合并。
package section

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/semantic"
	"resume-parser-go/internal/types"
)

const (
	// styleConfidence 仅凭样式判定的标题置信度
	styleConfidence = 0.6
	// maxStyleHeadingWords 样式判定标题允许的最大词数
	maxStyleHeadingWords = 5
	// DefaultMinConfidence 语义纠正的默认置信度下限
	DefaultMinConfidence = 0.75
)

// Segmenter 章节切分器，无状态，可并发使用
type Segmenter struct {
	classifier    semantic.Classifier
	minConfidence float64
	logger        zerolog.Logger
}

// Option 配置项
type Option func(*Segmenter)

// WithClassifier 注入语义分类器，用于纠正低置信度的标题判定
func WithClassifier(c semantic.Classifier, minConfidence float64) Option {
	return func(s *Segmenter) {
		s.classifier = semantic.OrNoop(c)
		if minConfidence > 0 {
			s.minConfidence = minConfidence
		}
	}
}

// WithLogger 设置日志
func WithLogger(l zerolog.Logger) Option {
	return func(s *Segmenter) { s.logger = l }
}

// New 创建切分器
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		classifier:    semantic.Noop{},
		minConfidence: DefaultMinConfidence,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SegmentText 纯文本模式
// 文档开头处于隐式的 profile 章节，遇到标题行时结束当前章节
func (s *Segmenter) SegmentText(ctx context.Context, text string) []types.SectionBlock {
	b := newBuilder()
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRightFunc(raw, unicode.IsSpace)
		if strings.TrimSpace(line) == "" {
			b.addLine("", nil)
			continue
		}
		if id, conf, ok := classifyTextHeading(line); ok {
			id = s.correct(ctx, line, id, conf)
			b.open(id, strings.TrimSpace(line))
			continue
		}
		b.addLine(strings.TrimSpace(line), nil)
	}
	return b.finish()
}

// SegmentLines 几何模式
// 只有单片段行才可能是标题，且文档前两行不参与判定
func (s *Segmenter) SegmentLines(ctx context.Context, lines []types.Line) []types.SectionBlock {
	b := newBuilder()
	for i, line := range lines {
		text := line.Text()
		if text == "" {
			continue
		}
		if i >= 2 && len(line) == 1 && isGeometryHeading(line[0]) {
			id, conf := ResolveID(text)
			id = s.correct(ctx, text, id, conf)
			b.open(id, text)
			continue
		}
		b.addLine(text, line)
	}
	return b.finish()
}

// correct 置信度不足时请求语义分类器
func (s *Segmenter) correct(ctx context.Context, heading string, id types.SectionID, conf float64) types.SectionID {
	if conf >= s.minConfidence {
		return id
	}
	if err := ctx.Err(); err != nil {
		return id
	}
	label, score, err := s.classifier.Classify(ctx, heading)
	if err != nil {
		s.logger.Warn().Err(err).Str("heading", heading).Msg("语义分类失败，保留规则判定结果")
		return id
	}
	candidate := types.SectionID(label)
	if !candidate.Valid() || score < s.minConfidence {
		return id
	}
	if candidate != id {
		s.logger.Debug().
			Str("heading", heading).
			Str("from", string(id)).
			Str("to", string(candidate)).
			Float64("confidence", score).
			Msg("语义分类纠正章节标签")
	}
	return candidate
}

// classifyTextHeading 纯文本模式的标题判定
// 同义词库命中为高置信度；否则需要同时满足样式规则并包含章节词根
func classifyTextHeading(line string) (types.SectionID, float64, bool) {
	if id, ok := MatchHeading(line); ok {
		return id, 1.0, true
	}
	clean := CleanHeading(line)
	words := normalize.Words(clean)
	if len(words) == 0 || len(words) > maxStyleHeadingWords {
		return "", 0, false
	}
	if strings.ContainsAny(clean, "@,|") || normalize.HasDigit(clean) || strings.HasSuffix(clean, ".") {
		return "", 0, false
	}
	if roleNounRe.MatchString(clean) {
		return "", 0, false
	}
	if !passesStyle(clean, words) {
		return "", 0, false
	}
	id, ok := KeywordSection(clean)
	if !ok {
		return "", 0, false
	}
	return id, styleConfidence, true
}

func passesStyle(clean string, words []string) bool {
	if normalize.UppercaseRatio(clean) > 0.6 {
		return true
	}
	if ratio, n := normalize.TitleCaseRatio(clean); n >= 2 && ratio >= 0.8 {
		return true
	}
	if n := utf8.RuneCountInString(clean); normalize.IsAllUpper(clean) && n >= 3 && n <= 30 {
		return true
	}
	if len(words) == 1 {
		_, ok := KeywordSection(clean)
		return ok
	}
	return false
}

// isGeometryHeading 粗体全大写，或不超过两个词、仅含字母空格与&、首字母大写且含固定词根
func isGeometryHeading(f types.TextFragment) bool {
	text := strings.TrimSpace(f.Text)
	if text == "" {
		return false
	}
	if f.IsBold() && normalize.IsAllUpper(text) {
		return true
	}
	if len(normalize.Words(text)) > 2 || !letterSpaceAmp.MatchString(text) {
		return false
	}
	first, _ := utf8.DecodeRuneInString(text)
	return unicode.IsUpper(first) && hasGeometryRoot(text)
}
