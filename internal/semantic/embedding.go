package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"

	"resume-parser-go/pkg/ratelimit"
)

// DefaultPrototypes 每个标签的原型短语
var DefaultPrototypes = map[string][]string{
	"profile":      {"contact information", "personal details"},
	"summary":      {"professional summary", "career profile overview"},
	"objective":    {"career objective", "goal seeking a position"},
	"experience":   {"work experience", "employment history", "professional experience"},
	"education":    {"education", "academic background", "university degree"},
	"skills":       {"technical skills", "core competencies", "expertise"},
	"projects":     {"projects", "personal projects", "portfolio"},
	"certificates": {"certifications", "licenses and certificates"},
	"awards":       {"awards and honors", "achievements"},
	"volunteer":    {"volunteer experience", "community service"},
	"languages":    {"spoken languages", "language proficiency"},
	LabelName:      {"John Smith", "Maria Garcia", "person full name"},
}

type prototype struct {
	label  string
	vector []float64
}

// EmbeddingClassifier 以向量余弦相似度把文本归到最接近的原型标签
type EmbeddingClassifier struct {
	embedder   embedding.Embedder
	limiter    *ratelimit.TokenBucket
	phrases    map[string][]string
	logger     zerolog.Logger
	mu         sync.Mutex
	prototypes []prototype
}

// EmbeddingOption 配置项
type EmbeddingOption func(*EmbeddingClassifier)

// WithLimiter 限制嵌入接口的调用频率
func WithLimiter(tb *ratelimit.TokenBucket) EmbeddingOption {
	return func(c *EmbeddingClassifier) { c.limiter = tb }
}

// WithPrototypes 替换原型短语
func WithPrototypes(p map[string][]string) EmbeddingOption {
	return func(c *EmbeddingClassifier) {
		if len(p) > 0 {
			c.phrases = p
		}
	}
}

// WithEmbeddingLogger 设置日志
func WithEmbeddingLogger(l zerolog.Logger) EmbeddingOption {
	return func(c *EmbeddingClassifier) { c.logger = l }
}

// NewEmbeddingClassifier 创建分类器，原型向量在首次分类时计算
func NewEmbeddingClassifier(e embedding.Embedder, opts ...EmbeddingOption) (*EmbeddingClassifier, error) {
	if e == nil {
		return nil, errors.New("embedder 不能为空")
	}
	c := &EmbeddingClassifier{
		embedder: e,
		phrases:  DefaultPrototypes,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ Classifier = (*EmbeddingClassifier)(nil)

// Classify 实现 Classifier
func (c *EmbeddingClassifier) Classify(ctx context.Context, text string) (string, float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", 0, nil
	}
	protos, err := c.loadPrototypes(ctx)
	if err != nil {
		return "", 0, err
	}
	vecs, err := c.embed(ctx, []string{text})
	if err != nil {
		return "", 0, err
	}
	if len(vecs) != 1 {
		return "", 0, fmt.Errorf("embedder 返回了 %d 个向量", len(vecs))
	}

	best, bestSim := "", 0.0
	for _, p := range protos {
		if sim := cosine(vecs[0], p.vector); sim > bestSim {
			best, bestSim = p.label, sim
		}
	}
	c.logger.Debug().Str("text", text).Str("label", best).Float64("confidence", bestSim).Msg("语义分类")
	return best, bestSim, nil
}

// loadPrototypes 原型向量只计算一次；失败时下次调用重试
func (c *EmbeddingClassifier) loadPrototypes(ctx context.Context) ([]prototype, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prototypes != nil {
		return c.prototypes, nil
	}

	labels := make([]string, 0, len(c.phrases))
	for label := range c.phrases {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	var texts, owners []string
	for _, label := range labels {
		for _, phrase := range c.phrases[label] {
			texts = append(texts, phrase)
			owners = append(owners, label)
		}
	}

	vecs, err := c.embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("计算原型向量失败: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("原型向量数量不匹配: 期望 %d, 实际 %d", len(texts), len(vecs))
	}
	protos := make([]prototype, len(texts))
	for i := range texts {
		protos[i] = prototype{label: owners[i], vector: vecs[i]}
	}
	c.prototypes = protos
	c.logger.Info().Int("prototypes", len(protos)).Msg("原型向量已加载")
	return protos, nil
}

func (c *EmbeddingClassifier) embed(ctx context.Context, texts []string) ([][]float64, error) {
	if c.limiter == nil {
		return c.embedder.EmbedStrings(ctx, texts)
	}
	var out [][]float64
	err := c.limiter.RetryWithBackoff(ctx, func() error {
		var err error
		out, err = c.embedder.EmbedStrings(ctx, texts)
		return err
	})
	return out, err
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
