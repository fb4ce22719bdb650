package section

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/types"
)

const exampleResume = `EXPERIENCE
Software Engineer, Acme Corp
Jan 2020 - Present
• Built X
• Built Y
EDUCATION
B.S. Computer Science, State University
2016 - 2020`

func TestSegmentText_Example(t *testing.T) {
	blocks := New().SegmentText(context.Background(), exampleResume)
	require.Len(t, blocks, 2, "没有正文的隐式 profile 章节应被省略")

	assert.Equal(t, types.SectionExperience, blocks[0].ID)
	assert.Equal(t, "EXPERIENCE", blocks[0].Heading)
	assert.Equal(t, []string{
		"Software Engineer, Acme Corp",
		"Jan 2020 - Present",
		"• Built X",
		"• Built Y",
	}, blocks[0].Lines)

	assert.Equal(t, types.SectionEducation, blocks[1].ID)
	assert.Equal(t, []string{"B.S. Computer Science, State University", "2016 - 2020"}, blocks[1].Lines)
}

func TestSegmentText_ImplicitProfile(t *testing.T) {
	text := "Jane Doe\njane.doe@example.com\n\nSkills:\nGo, Python"
	blocks := New().SegmentText(context.Background(), text)
	require.Len(t, blocks, 2)
	assert.Equal(t, types.SectionProfile, blocks[0].ID)
	assert.Empty(t, blocks[0].Heading)
	assert.Equal(t, []string{"Jane Doe", "jane.doe@example.com"}, blocks[0].Lines)
	assert.Equal(t, types.SectionSkills, blocks[1].ID)
	assert.Equal(t, "Skills:", blocks[1].Heading)
}

func TestSegmentText_HeadingHeuristics(t *testing.T) {
	tests := []struct {
		line    string
		want    types.SectionID
		heading bool
	}{
		{"Professional Experience", types.SectionExperience, true},
		{"WORK HISTORY", types.SectionExperience, true},
		{"1. Education", types.SectionEducation, true},
		{"Volunteer Experience", types.SectionVolunteer, true},
		{"Technical Skills & Tools", types.SectionSkills, true},
		{"KEY ACADEMIC PROJECTS", types.SectionProjects, true},
		{"Licenses & Certifications:", types.SectionCertificates, true},
		{"Honors and Awards", types.SectionAwards, true},
		{"Software Engineer, Acme Corp", "", false},
		{"Senior Project Manager", "", false},
		{"Jane Doe", "", false},
		{"Built a project tracking tool for the education team.", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			id, _, ok := classifyTextHeading(tt.line)
			assert.Equal(t, tt.heading, ok)
			if tt.heading {
				assert.Equal(t, tt.want, id)
			}
		})
	}
}

func TestSegmentText_MergesDuplicates(t *testing.T) {
	text := "EXPERIENCE\nEngineer at A\nSKILLS\nGo\nWork Experience\nAnalyst at B"
	blocks := New().SegmentText(context.Background(), text)
	require.Len(t, blocks, 2)
	assert.Equal(t, types.SectionExperience, blocks[0].ID)
	assert.Equal(t, "EXPERIENCE", blocks[0].Heading, "应保留首次出现的标题")
	assert.Equal(t, []string{"Engineer at A", "", "Analyst at B"}, blocks[0].Lines)
	assert.Equal(t, types.SectionSkills, blocks[1].ID)
}

func TestSegmentText_Coverage(t *testing.T) {
	text := "Jane Doe\nBoston, MA\n\nSUMMARY\nBuilder of things.\n\nEXPERIENCE\nEngineer at A\n\n\nAnalyst at B\nSKILLS\nGo, SQL\nEXPERIENCE\nIntern at C"
	blocks := New().SegmentText(context.Background(), text)

	var got []string
	headings := map[string]bool{}
	for _, b := range blocks {
		headings[b.Heading] = true
		for _, l := range b.Lines {
			if strings.TrimSpace(l) != "" {
				got = append(got, l)
			}
		}
	}
	var want []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" || headings[l] {
			continue
		}
		want = append(want, l)
	}
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got, "除标题与空行外不应丢失或重复任何行")
}

func TestSegmentText_Deterministic(t *testing.T) {
	s := New()
	a := s.SegmentText(context.Background(), exampleResume)
	b := s.SegmentText(context.Background(), exampleResume)
	assert.Equal(t, a, b)
}

func geoLine(y float64, text, font string) types.Line {
	return types.Line{{Text: text, X: 50, Y: y, Width: float64(len(text)) * 5, Height: 10, FontID: font, FontName: font, EndOfLine: true}}
}

func TestSegmentLines(t *testing.T) {
	lines := []types.Line{
		geoLine(10, "JANE DOE", "Helvetica-Bold"),
		geoLine(22, "EXPERIENCE", "Helvetica-Bold"), // 前两行不参与标题判定
		geoLine(40, "WORK EXPERIENCE", "Helvetica-Bold"),
		geoLine(52, "Software Engineer, Acme Corp", "Helvetica"),
		geoLine(64, "Education", "Helvetica"),
		geoLine(76, "State University", "Helvetica"),
		{
			{Text: "Skills", X: 50, Y: 100, Width: 30, Height: 10, FontID: "F1"},
			{Text: "Go, SQL", X: 200, Y: 100, Width: 35, Height: 10, FontID: "F1", EndOfLine: true},
		},
		geoLine(120, "ACME WIDGETS", "Helvetica-Bold"),
	}
	blocks := New().SegmentLines(context.Background(), lines)
	require.Len(t, blocks, 4)

	assert.Equal(t, types.SectionProfile, blocks[0].ID)
	assert.Equal(t, []string{"JANE DOE", "EXPERIENCE"}, blocks[0].Lines)

	assert.Equal(t, types.SectionExperience, blocks[1].ID)
	assert.Equal(t, "WORK EXPERIENCE", blocks[1].Heading)
	assert.Equal(t, []string{"Software Engineer, Acme Corp"}, blocks[1].Lines)
	require.Len(t, blocks[1].RawLines, 1)

	assert.Equal(t, types.SectionEducation, blocks[2].ID)
	assert.Equal(t, []string{"State University", "Skills Go, SQL"}, blocks[2].Lines, "多片段行不能作为标题")

	assert.Equal(t, types.SectionOther, blocks[3].ID, "无词根的粗体大写行归为 other")
}

func TestSegmentLines_Coverage(t *testing.T) {
	lines := []types.Line{
		geoLine(10, "JANE DOE", "Helvetica-Bold"),
		geoLine(22, "SKILLS", "Helvetica-Bold"),
		geoLine(40, "EXPERIENCE", "Helvetica-Bold"),
		geoLine(52, "Engineer at A", "Helvetica"),
		geoLine(70, "SKILLS", "Helvetica-Bold"),
		geoLine(82, "Go, SQL", "Helvetica"),
		geoLine(100, "WORK EXPERIENCE", "Helvetica-Bold"),
		geoLine(112, "Analyst at B", "Helvetica"),
	}
	headingAt := map[int]bool{2: true, 4: true, 6: true}

	blocks := New().SegmentLines(context.Background(), lines)
	require.Len(t, blocks, 3)

	var got []string
	var raw int
	for _, b := range blocks {
		for _, l := range b.Lines {
			if strings.TrimSpace(l) != "" {
				got = append(got, l)
			}
		}
		raw += len(b.RawLines)
	}
	var want []string
	for i, l := range lines {
		if !headingAt[i] {
			want = append(want, l.Text())
		}
	}
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got, "除标题外不应丢失或重复任何行")
	assert.Equal(t, len(want), raw, "每个正文行都保留几何行")

	assert.Equal(t, types.SectionProfile, blocks[0].ID)
	assert.Equal(t, []string{"JANE DOE", "SKILLS"}, blocks[0].Lines, "前两行即使形似标题也归入正文")

	exp := blocks[1]
	assert.Equal(t, types.SectionExperience, exp.ID)
	assert.Equal(t, "EXPERIENCE", exp.Heading)
	assert.Equal(t, []string{"Engineer at A", "", "Analyst at B"}, exp.Lines)
	require.Len(t, exp.RawLines, 2, "重复章节合并时几何行一并合并")
	assert.Equal(t, "Engineer at A", exp.RawLines[0].Text())
	assert.Equal(t, "Analyst at B", exp.RawLines[1].Text())

	assert.Equal(t, types.SectionSkills, blocks[2].ID)
	assert.Equal(t, []string{"Go, SQL"}, blocks[2].Lines)
}

type mockClassifier struct {
	label string
	conf  float64
	err   error
	calls int
}

func (m *mockClassifier) Classify(context.Context, string) (string, float64, error) {
	m.calls++
	return m.label, m.conf, m.err
}

func TestSegmenter_SemanticCorrection(t *testing.T) {
	text := "Name\nTECHNICAL EXPERTISE TOOLKIT\nGo"

	mc := &mockClassifier{label: "skills", conf: 0.9}
	blocks := New(WithClassifier(mc, 0.75)).SegmentText(context.Background(), text)
	require.Len(t, blocks, 2)
	assert.Equal(t, types.SectionSkills, blocks[1].ID)
	assert.Equal(t, 1, mc.calls)

	mc = &mockClassifier{label: "awards", conf: 0.5}
	blocks = New(WithClassifier(mc, 0.75)).SegmentText(context.Background(), text)
	assert.Equal(t, types.SectionSkills, blocks[1].ID, "低置信度的分类结果不应覆盖规则判定")

	mc = &mockClassifier{err: errors.New("boom")}
	blocks = New(WithClassifier(mc, 0.75)).SegmentText(context.Background(), text)
	assert.Equal(t, types.SectionSkills, blocks[1].ID, "分类器出错时保留规则判定")

	mc = &mockClassifier{label: "awards", conf: 0.99}
	blocks = New(WithClassifier(mc, 0.75)).SegmentText(context.Background(), "EDUCATION\nState University")
	assert.Equal(t, types.SectionEducation, blocks[0].ID)
	assert.Zero(t, mc.calls, "同义词库命中时不调用分类器")
}
