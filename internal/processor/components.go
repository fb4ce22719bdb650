package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/semantic"
	"resume-parser-go/internal/validation"
	"resume-parser-go/pkg/ratelimit"
)

// BuildComponents 按配置创建解析流水线的组件
// Tika 地址为空时不启用 OCR；语义分类器需要显式开启
func BuildComponents(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Components, error) {
	comp := &Components{}

	extractorOpts := []parser.ExtractorOption{parser.WithExtractorLogger(logger)}
	flat, err := parser.NewEinoPDFParser(ctx)
	if err != nil {
		// 备用解析器不可用时只影响无字形的 PDF
		logger.Warn().Err(err).Msg("创建PDF纯文本解析器失败，跳过备用解析")
	} else {
		extractorOpts = append(extractorOpts, parser.WithFlatPDFParser(flat))
	}
	comp.Extractor = parser.NewExtractor(extractorOpts...)

	if cfg.Tika.ServerURL != "" {
		comp.OCR = parser.NewTikaOCR(cfg.Tika.ServerURL,
			parser.WithTikaTimeout(config.GetDuration(cfg.Tika.Timeout, 120*time.Second)),
			parser.WithTikaLogger(logger),
		)
		logger.Info().Str("server", cfg.Tika.ServerURL).Msg("已启用Tika OCR")
	}

	if cfg.Semantic.Enabled {
		classifier, err := newSemanticClassifier(cfg.Semantic, logger)
		if err != nil {
			return nil, err
		}
		comp.Classifier = classifier
		logger.Info().Str("model", cfg.Semantic.Model).Int("qpm", cfg.Semantic.QPM).Msg("已启用语义分类器")
	}

	if cfg.Parser.ValidateOutput {
		v, err := validation.NewSchemaValidator()
		if err != nil {
			return nil, fmt.Errorf("初始化输出校验器失败: %w", err)
		}
		comp.Validator = v
	}
	return comp, nil
}

func newSemanticClassifier(cfg config.SemanticConfig, logger zerolog.Logger) (semantic.Classifier, error) {
	var opts []semantic.AliyunOption
	if cfg.Model != "" {
		opts = append(opts, semantic.WithModel(cfg.Model))
	}
	if cfg.Dimensions > 0 {
		opts = append(opts, semantic.WithDimensions(cfg.Dimensions))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, semantic.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, semantic.WithAliyunLogger(logger))

	embedder, err := semantic.NewAliyunEmbedder(cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("初始化Embedding客户端失败: %w", err)
	}

	classifierOpts := []semantic.EmbeddingOption{semantic.WithEmbeddingLogger(logger)}
	if cfg.QPM > 0 {
		classifierOpts = append(classifierOpts, semantic.WithLimiter(ratelimit.NewTokenBucket(cfg.QPM, 0)))
	}
	classifier, err := semantic.NewEmbeddingClassifier(embedder, classifierOpts...)
	if err != nil {
		return nil, fmt.Errorf("初始化语义分类器失败: %w", err)
	}
	return classifier, nil
}
