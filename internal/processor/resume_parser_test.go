package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/types"
	"resume-parser-go/internal/validation"
)

const textResume = `Jane Doe
Contact: jane.doe@example.com
EXPERIENCE
Software Engineer, Acme Corp
Jan 2020 - Present
• Built the billing pipeline
• Led the migration to the new platform
EDUCATION
B.S. Computer Science, State University
2016 - 2020`

type mockOCR struct {
	result *parser.OCRResult
	err    error
	calls  int
}

func (m *mockOCR) Recognize(_ context.Context, _ []byte, _ string) (*parser.OCRResult, error) {
	m.calls++
	return m.result, m.err
}

type mockValidator struct {
	err error
}

func (m mockValidator) Validate(interface{}) error { return m.err }

func TestParse_PlainText(t *testing.T) {
	p := NewResumeParser(&Components{}, nil)

	res, err := p.Parse(context.Background(), []byte(textResume), "jane.txt")
	require.NoError(t, err)
	require.NotNil(t, res.Resume)

	assert.Equal(t, types.FormatText, res.Meta.Format)
	assert.Equal(t, types.LayoutFlat, res.Meta.LayoutKind)
	assert.False(t, res.Meta.OCRUsed)
	assert.Contains(t, res.Meta.SectionIDs, types.SectionExperience)
	assert.Contains(t, res.Meta.SectionIDs, types.SectionEducation)
	assert.Equal(t, "jane.doe@example.com", res.Resume.Basics.Email)
	require.Len(t, res.Resume.Work, 1)
	assert.Equal(t, "Acme Corp", res.Resume.Work[0].Name)
	assert.Len(t, res.Sections, len(res.Meta.SectionIDs))
	assert.Empty(t, res.Meta.ValidationErrors)
}

func TestParse_OCRReroute(t *testing.T) {
	ocr := &mockOCR{result: &parser.OCRResult{Text: textResume, PageCount: 2}}
	p := NewResumeParser(&Components{OCR: ocr}, nil)

	res, err := p.Parse(context.Background(), []byte("Jane Doe\n"), "scan.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, ocr.calls)
	assert.True(t, res.Meta.OCRUsed)
	assert.Equal(t, types.LayoutFlat, res.Meta.LayoutKind)
	assert.Equal(t, 2, res.Meta.PageCount)
	assert.Contains(t, res.Meta.SectionIDs, types.SectionExperience)
	assert.Equal(t, "jane.doe@example.com", res.Resume.Basics.Email)
}

func TestParse_QualityGateSkipsOCRForGoodText(t *testing.T) {
	ocr := &mockOCR{err: errors.New("should not be called")}
	p := NewResumeParser(&Components{OCR: ocr}, nil)

	_, err := p.Parse(context.Background(), []byte(textResume), "jane.txt")
	require.NoError(t, err)
	assert.Zero(t, ocr.calls)
}

func TestParse_OCRFailure(t *testing.T) {
	t.Run("原文有内容时降级", func(t *testing.T) {
		ocr := &mockOCR{err: parser.ErrOCRUnavailable}
		p := NewResumeParser(&Components{OCR: ocr}, nil)

		res, err := p.Parse(context.Background(), []byte("Jane Doe\njane.doe@example.com"), "short.txt")
		require.NoError(t, err)
		assert.False(t, res.Meta.OCRUsed)
		assert.Equal(t, "jane.doe@example.com", res.Resume.Basics.Email)
	})

	t.Run("原文为空时报错", func(t *testing.T) {
		ocr := &mockOCR{err: parser.ErrOCRUnavailable}
		p := NewResumeParser(&Components{OCR: ocr}, nil)

		_, err := p.Parse(context.Background(), []byte("  \n \n"), "blank.txt")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrOCRFailed)
		assert.ErrorIs(t, err, parser.ErrOCRUnavailable)
	})
}

func TestParse_NoOCRKeepsLowQualityText(t *testing.T) {
	p := NewResumeParser(&Components{}, nil)

	res, err := p.Parse(context.Background(), []byte("Jane Doe\n"), "short.txt")
	require.NoError(t, err)
	assert.False(t, res.Meta.OCRUsed)
	assert.NotNil(t, res.Resume.Work)
}

func TestParse_ExtractionErrors(t *testing.T) {
	p := NewResumeParser(&Components{}, nil)

	_, err := p.Parse(context.Background(), []byte{0x00, 0x01, 0x02, 0xff, 0xfe}, "resume.bin")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.ErrorIs(t, err, parser.ErrUnsupportedFormat)

	var pe *ResumeParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "extract", pe.Op)

	_, err = p.Parse(context.Background(), []byte("not a zip"), "resume.docx")
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrCorruptDocument)
}

func TestParse_CancelledContext(t *testing.T) {
	p := NewResumeParser(&Components{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Parse(ctx, []byte(textResume), "jane.txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_ValidationWarnings(t *testing.T) {
	v := mockValidator{err: &validation.ValidationError{Errors: []validation.FieldError{
		{Field: "basics.email", Message: "Does not match format 'email'"},
	}}}
	p := NewResumeParser(&Components{Validator: v}, nil)

	res, err := p.Parse(context.Background(), []byte(textResume), "jane.txt")
	require.NoError(t, err, "校验失败只作为告警")
	assert.Equal(t, []string{"basics.email: Does not match format 'email'"}, res.Meta.ValidationErrors)

	p = NewResumeParser(&Components{Validator: mockValidator{err: errors.New("boom")}}, nil)
	res, err = p.Parse(context.Background(), []byte(textResume), "jane.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"(root): boom"}, res.Meta.ValidationErrors)
}

func TestParse_RealSchemaAcceptsOutput(t *testing.T) {
	v, err := validation.NewSchemaValidator()
	require.NoError(t, err)
	p := NewResumeParser(&Components{Validator: v}, nil)

	res, err := p.Parse(context.Background(), []byte(textResume), "jane.txt")
	require.NoError(t, err)
	assert.Empty(t, res.Meta.ValidationErrors)
}

func TestParse_Deterministic(t *testing.T) {
	p := NewResumeParser(&Components{}, nil)
	a, err := p.Parse(context.Background(), []byte(textResume), "jane.txt")
	require.NoError(t, err)
	b, err := p.Parse(context.Background(), []byte(textResume), "jane.txt")
	require.NoError(t, err)
	assert.Equal(t, a.Resume, b.Resume)
	assert.Equal(t, a.Meta.SectionIDs, b.Meta.SectionIDs)
}

func TestSettings(t *testing.T) {
	set := DefaultSettings()
	assert.Equal(t, DefaultMinTextLength, set.MinTextLength)
	assert.Equal(t, DefaultMaxNonASCIIRatio, set.MaxNonASCIIRatio)

	cfg := &config.Config{}
	cfg.Parser.MinTextLength = 40
	cfg.Parser.MaxNonASCIIRatio = 0.8
	cfg.Parser.GapMultiplier = 1.6
	cfg.Parser.Timeout = "30s"
	cfg.Semantic.MinConfidence = 0.7
	set = SettingsFromConfig(cfg)
	assert.Equal(t, 40, set.MinTextLength)
	assert.Equal(t, 0.8, set.MaxNonASCIIRatio)
	assert.Equal(t, 1.6, set.GapMultiplier)
	assert.Equal(t, 0.7, set.SectionConfidence)
	assert.Equal(t, 30*time.Second, set.Timeout)

	WithsetMinTextLength(-1)(set)
	assert.Equal(t, 40, set.MinTextLength, "非正数不覆盖")
	WithsetMinTextLength(10)(set)
	assert.Equal(t, 10, set.MinTextLength)
}
