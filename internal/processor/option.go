package processor

import (
	"time"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/semantic"
)

const (
	// DefaultMinTextLength 质量门槛：少于该字符数视为抽取失败
	DefaultMinTextLength = 100
	// DefaultMaxNonASCIIRatio 质量门槛：非 ASCII 占比上限
	DefaultMaxNonASCIIRatio = 0.5
)

// OutputValidator 结构化输出校验
type OutputValidator interface {
	Validate(value interface{}) error
}

// Components 仅包含业务逻辑组件
type Components struct {
	Extractor  *parser.Extractor   // 片段抽取器，必需
	OCR        parser.OCRProvider  // OCR 服务，可选
	Classifier semantic.Classifier // 语义分类器，可选
	Validator  OutputValidator     // 输出校验，可选
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	MinTextLength     int
	MaxNonASCIIRatio  float64
	GapMultiplier     float64 // 0 表示使用默认值
	SectionConfidence float64 // 0 表示使用默认值
	Timeout           time.Duration
	Logger            zerolog.Logger
}

// DefaultSettings 返回默认设置
func DefaultSettings() *Settings {
	return &Settings{
		MinTextLength:    DefaultMinTextLength,
		MaxNonASCIIRatio: DefaultMaxNonASCIIRatio,
		Logger:           zerolog.Nop(),
	}
}

// SettingsFromConfig 由配置文件构造设置
func SettingsFromConfig(cfg *config.Config) *Settings {
	set := DefaultSettings()
	if cfg == nil {
		return set
	}
	if cfg.Parser.MinTextLength > 0 {
		set.MinTextLength = cfg.Parser.MinTextLength
	}
	if cfg.Parser.MaxNonASCIIRatio > 0 {
		set.MaxNonASCIIRatio = cfg.Parser.MaxNonASCIIRatio
	}
	set.GapMultiplier = cfg.Parser.GapMultiplier
	set.SectionConfidence = cfg.Parser.SectionConfidence
	if set.SectionConfidence == 0 {
		set.SectionConfidence = cfg.Semantic.MinConfidence
	}
	set.Timeout = config.GetDuration(cfg.Parser.Timeout, 0)
	return set
}

// ComponentOpt 组件选项
type ComponentOpt func(*Components)

// SettingOpt 设置选项
type SettingOpt func(*Settings)

// WithcompExtractor 设置片段抽取器
func WithcompExtractor(e *parser.Extractor) ComponentOpt {
	return func(c *Components) { c.Extractor = e }
}

// WithcompOCR 设置 OCR 服务
func WithcompOCR(o parser.OCRProvider) ComponentOpt {
	return func(c *Components) { c.OCR = o }
}

// WithcompClassifier 设置语义分类器
func WithcompClassifier(cl semantic.Classifier) ComponentOpt {
	return func(c *Components) { c.Classifier = cl }
}

// WithcompValidator 设置输出校验器
func WithcompValidator(v OutputValidator) ComponentOpt {
	return func(c *Components) { c.Validator = v }
}

// WithsetMinTextLength 设置质量门槛的最小字符数
func WithsetMinTextLength(n int) SettingOpt {
	return func(s *Settings) {
		if n > 0 {
			s.MinTextLength = n
		}
	}
}

// WithsetMaxNonASCIIRatio 设置质量门槛的非 ASCII 占比上限
func WithsetMaxNonASCIIRatio(r float64) SettingOpt {
	return func(s *Settings) {
		if r > 0 {
			s.MaxNonASCIIRatio = r
		}
	}
}

// WithsetGapMultiplier 设置条目切分的行距倍数
func WithsetGapMultiplier(m float64) SettingOpt {
	return func(s *Settings) { s.GapMultiplier = m }
}

// WithsetSectionConfidence 设置语义纠正的置信度下限
func WithsetSectionConfidence(c float64) SettingOpt {
	return func(s *Settings) { s.SectionConfidence = c }
}

// WithsetTimeout 设置单份文档的解析超时
func WithsetTimeout(d time.Duration) SettingOpt {
	return func(s *Settings) { s.Timeout = d }
}

// WithsetLogger 设置日志
func WithsetLogger(l zerolog.Logger) SettingOpt {
	return func(s *Settings) { s.Logger = l }
}
