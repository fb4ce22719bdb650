// Package semantic 可选的语义分类协作方
//
// 管线的主路径不依赖本包；只在章节标题置信度低、或姓名规则全部失败时才会调用。
package semantic

import "context"

// LabelName 姓名识别使用的标签，其余标签与章节标识一致
const LabelName = "name"

// Classifier 文本分类能力
type Classifier interface {
	// Classify 返回最接近的标签及置信度（0~1）
	Classify(ctx context.Context, text string) (label string, confidence float64, err error)
}

// Noop 默认实现，始终返回空标签
type Noop struct{}

// Classify 实现 Classifier
func (Noop) Classify(context.Context, string) (string, float64, error) {
	return "", 0, nil
}

// OrNoop nil 时返回 Noop
func OrNoop(c Classifier) Classifier {
	if c == nil {
		return Noop{}
	}
	return c
}
