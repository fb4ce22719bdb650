package fields

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/scoring"
	"resume-parser-go/internal/section"
	"resume-parser-go/internal/subsection"
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

func block(id types.SectionID, lines ...string) types.SectionBlock {
	return types.SectionBlock{ID: id, Lines: lines}
}

func TestBuild_Example(t *testing.T) {
	ctx := context.Background()
	blocks := section.New().SegmentText(ctx, exampleResume)
	resume := Build(ctx, blocks)

	require.Len(t, resume.Work, 1)
	w := resume.Work[0]
	assert.Equal(t, "Software Engineer", w.Position)
	assert.Equal(t, "Acme Corp", w.Name)
	assert.Equal(t, "2020-01", w.StartDate)
	assert.Empty(t, w.EndDate, "至今的经历不应有结束日期")
	assert.Equal(t, []string{"Built X", "Built Y"}, w.Highlights)

	require.Len(t, resume.Education, 1)
	e := resume.Education[0]
	assert.Equal(t, "State University", e.Institution)
	assert.Equal(t, "B.S.", e.StudyType)
	assert.Equal(t, "Computer Science", e.Area)
	assert.Equal(t, "2016", e.StartDate)
	assert.Equal(t, "2020", e.EndDate)

	assert.Empty(t, resume.Basics.Name, "没有 profile 章节时不应臆造姓名")
}

func TestBasics_CertificationIDIsNotPhone(t *testing.T) {
	resume := Build(context.Background(), []types.SectionBlock{
		block(types.SectionProfile, "Jane Doe", "Certification ID: 123456789012"),
	})
	assert.Empty(t, resume.Basics.Phone)
	assert.Equal(t, "Jane Doe", resume.Basics.Name)
}

func TestBasics_EmailCapture(t *testing.T) {
	c, ok := scoring.Select([]string{"Contact: jane.doe@example.com"}, emailFeatures(), scoring.Options{Threshold: emailThreshold, PreferCapture: true})
	require.True(t, ok)
	assert.Equal(t, "jane.doe@example.com", c.Result())

	resume := Build(context.Background(), []types.SectionBlock{
		block(types.SectionProfile, "Contact: jane.doe@example.com"),
	})
	assert.Equal(t, "jane.doe@example.com", resume.Basics.Email)
}

func TestBasics_FullHeader(t *testing.T) {
	resume := Build(context.Background(), []types.SectionBlock{
		block(types.SectionProfile,
			"Jane Doe",
			"Senior Software Engineer",
			"jane.doe@example.com | (555) 123-4567 | San Francisco, CA",
			"linkedin.com/in/janedoe | github.com/janedoe | janedoe.dev",
		),
		block(types.SectionSummary, "Backend engineer focused on distributed systems", "and data pipelines."),
	})
	b := resume.Basics
	assert.Equal(t, "Jane Doe", b.Name)
	assert.Equal(t, "Senior Software Engineer", b.Label)
	assert.Equal(t, "jane.doe@example.com", b.Email)
	assert.Equal(t, "(555) 123-4567", b.Phone)
	require.NotNil(t, b.Location)
	assert.Equal(t, "San Francisco", b.Location.City)
	assert.Equal(t, "CA", b.Location.Region)
	assert.Equal(t, "US", b.Location.CountryCode)
	assert.Equal(t, "https://janedoe.dev", b.URL)
	require.Len(t, b.Profiles, 2)
	assert.Equal(t, "LinkedIn", b.Profiles[0].Network)
	assert.Equal(t, "janedoe", b.Profiles[0].Username)
	assert.Equal(t, "GitHub", b.Profiles[1].Network)
	assert.Equal(t, "Backend engineer focused on distributed systems and data pipelines.", b.Summary)
}

func TestBasics_StrictNameFallback(t *testing.T) {
	resume := Build(context.Background(), []types.SectionBlock{
		block(types.SectionProfile, "jane.doe@example.com"),
		block(types.SectionOther, "Jane Doe"),
	})
	assert.Equal(t, "Jane Doe", resume.Basics.Name)
}

type nameClassifier struct{ calls int }

func (c *nameClassifier) Classify(_ context.Context, text string) (string, float64, error) {
	c.calls++
	if text == "jd" {
		return "name", 0.9, nil
	}
	return "", 0, nil
}

func TestBasics_ClassifierFallback(t *testing.T) {
	cls := &nameClassifier{}
	blocks := []types.SectionBlock{block(types.SectionProfile, "jd", "jane.doe@example.com")}

	assert.Empty(t, Build(context.Background(), blocks).Basics.Name)

	resume := Build(context.Background(), blocks, WithClassifier(cls, 0.8))
	assert.Equal(t, "jd", resume.Basics.Name)
	assert.Positive(t, cls.calls)
}

func TestExtractWork_MultipleEntries(t *testing.T) {
	lines := []string{
		"Senior Developer | Globex Inc | Austin, TX",
		"March 2019 – Dec 2021",
		"• Led migration to Kubernetes",
		"• Reduced latency by 40%",
		"",
		"Data Analyst at Initech",
		"06/2016 - 02/2019",
		"Built weekly reporting dashboards",
	}
	work := extractWork(subsection.DivideText(lines))
	require.Len(t, work, 2)

	assert.Equal(t, "Senior Developer", work[0].Position)
	assert.Equal(t, "Globex Inc", work[0].Name)
	assert.Equal(t, "Austin, TX", work[0].Location)
	assert.Equal(t, "2019-03", work[0].StartDate)
	assert.Equal(t, "2021-12", work[0].EndDate)
	assert.Len(t, work[0].Highlights, 2)

	assert.Equal(t, "Data Analyst", work[1].Position)
	assert.Equal(t, "Initech", work[1].Name)
	assert.Equal(t, "2016-06", work[1].StartDate)
	assert.Equal(t, []string{"Built weekly reporting dashboards"}, work[1].Highlights)
}

func TestExtractWork_WrappedBullet(t *testing.T) {
	work := extractWork([][]string{{
		"Software Engineer, Acme Corp",
		"• Designed a high-through-",
		"put ingestion service",
	}})
	require.Len(t, work, 1)
	assert.Equal(t, []string{"Designed a high-throughput ingestion service"}, work[0].Highlights)
}

func TestExtractEducation(t *testing.T) {
	edu := extractEducation([][]string{{
		"Massachusetts Institute of Technology",
		"Bachelor of Science in Computer Science, GPA: 3.85",
		"Sep 2014 - May 2018",
		"Relevant Coursework: Algorithms, Databases, Operating Systems",
	}})
	require.Len(t, edu, 1)
	e := edu[0]
	assert.Equal(t, "Massachusetts Institute of Technology", e.Institution)
	assert.Equal(t, "Bachelor of Science", e.StudyType)
	assert.Equal(t, "Computer Science", e.Area)
	assert.Equal(t, "3.85", e.Score)
	assert.Equal(t, "2014-09", e.StartDate)
	assert.Equal(t, "2018-05", e.EndDate)
	assert.Equal(t, []string{"Algorithms", "Databases", "Operating Systems"}, e.Courses)
}

func TestSplitDegree(t *testing.T) {
	tests := []struct {
		in, studyType, area string
	}{
		{"B.S. Computer Science", "B.S.", "Computer Science"},
		{"Bachelor of Arts in Economics", "Bachelor of Arts", "Economics"},
		{"Master's degree in Data Science", "Master's", "Data Science"},
		{"MBA", "MBA", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			st, area := splitDegree(tt.in)
			assert.Equal(t, tt.studyType, st)
			assert.Equal(t, tt.area, area)
		})
	}
}

func TestExtractProjects(t *testing.T) {
	projects := extractProjects([][]string{
		{
			"Resume Parser | Go, Redis",
			"• Parsed 10k documents per hour",
			"• Added OCR fallback",
		},
		{
			"Chess Engine (2021)",
			"A minimax chess engine with alpha-beta pruning.",
			"github.com/janedoe/chess",
		},
	})
	require.Len(t, projects, 2)
	assert.Equal(t, "Resume Parser", projects[0].Name)
	assert.Equal(t, "Go, Redis", projects[0].Description)
	assert.Equal(t, []string{"Parsed 10k documents per hour", "Added OCR fallback"}, projects[0].Highlights)

	assert.Equal(t, "Chess Engine", projects[1].Name)
	assert.Equal(t, "https://github.com/janedoe/chess", projects[1].URL)
	assert.Contains(t, projects[1].Description, "minimax chess engine")
}

func TestCertificates(t *testing.T) {
	t.Run("blank line separated", func(t *testing.T) {
		certs := extractCertificates(certificateEntries([]string{
			"AWS Certified Solutions Architect",
			"Issued by Amazon Web Services",
			"2021",
			"",
			"Certified Kubernetes Administrator",
			"Provider: CNCF",
			"March 2022",
		}))
		require.Len(t, certs, 2)
		assert.Equal(t, types.Certificate{Name: "AWS Certified Solutions Architect", Issuer: "Amazon Web Services", Date: "2021"}, certs[0])
		assert.Equal(t, types.Certificate{Name: "Certified Kubernetes Administrator", Issuer: "CNCF", Date: "2022-03"}, certs[1])
	})

	t.Run("one item per line", func(t *testing.T) {
		certs := extractCertificates(certificateEntries([]string{
			"• PMP, Project Management Institute, 2019",
			"• Scrum Master Certification (2020)",
		}))
		require.Len(t, certs, 2)
		assert.Equal(t, types.Certificate{Name: "PMP", Issuer: "Project Management Institute", Date: "2019"}, certs[0])
		assert.Equal(t, "Scrum Master Certification", certs[1].Name)
		assert.Equal(t, "2020", certs[1].Date)
	})

	t.Run("date with day of month", func(t *testing.T) {
		certs := extractCertificates(certificateEntries([]string{
			"Certified Kubernetes Administrator",
			"Provider: CNCF",
			"Issued March 15, 2020",
		}))
		require.Len(t, certs, 1)
		assert.Equal(t, "CNCF", certs[0].Issuer)
		assert.Equal(t, "2020-03", certs[0].Date)
	})
}

func TestAwards(t *testing.T) {
	awards := extractAwards(certificateEntries([]string{
		"Best Paper Award by IEEE, 2020",
		"",
		"Dean's List",
		"Awarded for academic excellence",
	}))
	require.Len(t, awards, 2)
	assert.Equal(t, "Best Paper Award", awards[0].Title)
	assert.Equal(t, "IEEE", awards[0].Awarder)
	assert.Equal(t, "2020", awards[0].Date)
	assert.Equal(t, "Dean's List", awards[1].Title)
}

func TestExtractSkills(t *testing.T) {
	skills := extractSkills([]string{
		"Languages: Go, Python, SQL",
		"Tools: Docker; Kubernetes | git",
		"• python",
		"Strong ability to communicate complex technical ideas to any audience at all",
	})
	var names []string
	for _, s := range skills {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Go", "Python", "SQL", "Docker", "Kubernetes", "git"}, names)
}

func TestExtractLanguages(t *testing.T) {
	langs := extractLanguages([]string{
		"English (Native), Spanish - Fluent",
		"French: B2",
		"Native Mandarin",
		"english",
	})
	assert.Equal(t, []types.Language{
		{Language: "English", Fluency: "Native"},
		{Language: "Spanish", Fluency: "Fluent"},
		{Language: "French", Fluency: "B2"},
		{Language: "Mandarin", Fluency: "Native"},
	}, langs)
}

func TestBuild_EmptySectionsYieldEmptySlices(t *testing.T) {
	resume := Build(context.Background(), nil)
	assert.NotNil(t, resume.Work)
	assert.NotNil(t, resume.Education)
	assert.NotNil(t, resume.Skills)
	assert.Empty(t, resume.Work)
}

func TestBuild_Deterministic(t *testing.T) {
	ctx := context.Background()
	blocks := section.New().SegmentText(ctx, exampleResume)
	assert.Equal(t, Build(ctx, blocks), Build(ctx, blocks))
}

func TestBuild_GeometricEntries(t *testing.T) {
	mk := func(y float64, text string) types.Line {
		return types.Line{{Text: text, Y: y, Height: 10, FontName: "Helvetica"}}
	}
	raw := []types.Line{
		mk(100, "Software Engineer, Acme Corp"),
		mk(112, "Jan 2020 - Present"),
		mk(124, "• Built X"),
		mk(160, "Intern, Initech"),
		mk(172, "Jun 2019 - Aug 2019"),
	}
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = l.Text()
	}
	resume := Build(context.Background(), []types.SectionBlock{{ID: types.SectionExperience, Lines: lines, RawLines: raw}})
	require.Len(t, resume.Work, 2)
	assert.Equal(t, "Acme Corp", resume.Work[0].Name)
	assert.Equal(t, "Intern", resume.Work[1].Position)
	assert.Equal(t, "2019-08", resume.Work[1].EndDate)
}
