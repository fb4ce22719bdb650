// Package validation 使用内嵌的 JSON Schema 校验结构化简历输出。
package validation

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed resume.schema.json
var resumeSchema []byte

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 汇总一次校验的全部字段错误
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:")
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// Messages 以 "field: message" 形式返回错误列表
func (ve *ValidationError) Messages() []string {
	out := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		out[i] = e.Field + ": " + e.Message
	}
	return out
}

// SchemaValidator 预编译的 schema 校验器，可并发使用
type SchemaValidator struct {
	schema *gojsonschema.Schema
}

// NewSchemaValidator 编译内嵌的简历 schema
func NewSchemaValidator() (*SchemaValidator, error) {
	return NewSchemaValidatorFromBytes(resumeSchema)
}

// NewSchemaValidatorFromBytes 编译给定的 schema
func NewSchemaValidatorFromBytes(schema []byte) (*SchemaValidator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("编译JSON Schema失败: %w", err)
	}
	return &SchemaValidator{schema: s}, nil
}

// Validate 校验任意可 JSON 序列化的值，不合法时返回 *ValidationError
func (v *SchemaValidator) Validate(value interface{}) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return fmt.Errorf("加载待校验文档失败: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	sort.SliceStable(verr.Errors, func(i, j int) bool {
		return verr.Errors[i].Field < verr.Errors[j].Field
	})
	return verr
}
