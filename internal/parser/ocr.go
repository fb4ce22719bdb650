package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// OCRResult OCR 识别结果
type OCRResult struct {
	Text      string
	PageCount int
}

// OCRProvider 从扫描件或无文本层的文档中识别文字
type OCRProvider interface {
	Recognize(ctx context.Context, data []byte, filename string) (*OCRResult, error)
}

// TikaOCR 基于 Apache Tika 服务的 OCR
type TikaOCR struct {
	serverURL string
	client    *http.Client
	logger    zerolog.Logger
}

// TikaOption 配置项
type TikaOption func(*TikaOCR)

// WithTikaTimeout 设置 HTTP 超时
func WithTikaTimeout(timeout time.Duration) TikaOption {
	return func(t *TikaOCR) {
		if timeout > 0 {
			t.client.Timeout = timeout
		}
	}
}

// WithTikaHTTPClient 替换 HTTP 客户端
func WithTikaHTTPClient(c *http.Client) TikaOption {
	return func(t *TikaOCR) {
		if c != nil {
			t.client = c
		}
	}
}

// WithTikaLogger 设置日志
func WithTikaLogger(l zerolog.Logger) TikaOption {
	return func(t *TikaOCR) { t.logger = l }
}

var _ OCRProvider = (*TikaOCR)(nil)

// NewTikaOCR 创建 Tika OCR 客户端，serverURL 例如 http://localhost:9998
func NewTikaOCR(serverURL string, opts ...TikaOption) *TikaOCR {
	t := &TikaOCR{
		serverURL: strings.TrimRight(serverURL, "/"),
		client:    &http.Client{Timeout: 120 * time.Second},
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Recognize 强制 OCR 识别全文；页数取自元数据接口，失败时只记日志
func (t *TikaOCR) Recognize(ctx context.Context, data []byte, filename string) (*OCRResult, error) {
	start := time.Now()
	body, err := t.put(ctx, "/tika", data, filename, "text/plain", map[string]string{
		"X-Tika-PDFOcrStrategy": "ocr_only",
	})
	if err != nil {
		return nil, err
	}
	res := &OCRResult{Text: string(body)}

	if pages, err := t.pageCount(ctx, data, filename); err != nil {
		t.logger.Warn().Err(err).Str("filename", filename).Msg("Tika 元数据获取失败")
	} else {
		res.PageCount = pages
	}

	t.logger.Info().
		Str("filename", filename).
		Int("chars", len(res.Text)).
		Dur("duration", time.Since(start)).
		Msg("OCR 识别完成")
	return res, nil
}

func (t *TikaOCR) pageCount(ctx context.Context, data []byte, filename string) (int, error) {
	body, err := t.put(ctx, "/meta", data, filename, "application/json", nil)
	if err != nil {
		return 0, err
	}
	var meta map[string]any
	if err := json.Unmarshal(body, &meta); err != nil {
		return 0, fmt.Errorf("解析元数据JSON失败: %w", err)
	}
	switch v := meta["xmpTPg:NPages"].(type) {
	case string:
		return strconv.Atoi(v)
	case float64:
		return int(v), nil
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return strconv.Atoi(s)
			}
		}
	}
	return 0, nil
}

func (t *TikaOCR) put(ctx context.Context, path string, data []byte, filename, accept string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.serverURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", accept)
	if filename != "" {
		req.Header.Set("X-Tika-Resource-Name", filename)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOCRUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取Tika响应失败: %w", err)
	}
	return body, nil
}
