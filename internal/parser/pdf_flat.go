package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	einopdf "github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

// FlatPDFParser 不带坐标的 PDF 文本抽取，几何抽取得不到字形时使用
type FlatPDFParser interface {
	ParseText(ctx context.Context, data []byte, uri string) (string, error)
}

// EinoPDFParser 基于 Eino PDF Parser 的整文档文本抽取
type EinoPDFParser struct {
	parser  *einopdf.PDFParser
	timeout time.Duration
}

// NewEinoPDFParser 不按页面分割，获取整个文档的连续文本
func NewEinoPDFParser(ctx context.Context) (*EinoPDFParser, error) {
	p, err := einopdf.NewPDFParser(ctx, &einopdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}
	return &EinoPDFParser{parser: p, timeout: 30 * time.Second}, nil
}

// ParseText 合并返回的所有文档内容
func (e *EinoPDFParser) ParseText(ctx context.Context, data []byte, uri string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: eino pdf parser panic: %v", ErrCorruptDocument, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(map[string]any{"source": uri}),
	)
	if err != nil {
		return "", fmt.Errorf("eino PDF parser failed for URI %s: %w", uri, err)
	}
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc != nil && strings.TrimSpace(doc.Content) != "" {
			parts = append(parts, doc.Content)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
