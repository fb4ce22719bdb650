package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/types"
)

// frag 以每字符 5pt 的宽度构造片段
func frag(text string, x, y float64, eol bool) types.TextFragment {
	return types.TextFragment{
		Text: text, X: x, Y: y, Width: float64(len(text)) * 5, Height: 10,
		FontID: "F1", FontName: "Helvetica", EndOfLine: eol,
	}
}

func TestGroupLines(t *testing.T) {
	frags := []types.TextFragment{
		frag("Jane", 0, 10, false),
		frag("Doe", 25, 10, true),
		frag("   ", 0, 20, true), // 空白行
		frag("Boston", 0, 30, false),
		frag(" ", 30, 30, true), // 空白片段带行尾标记
		frag("Tail", 0, 40, false),
	}
	lines := GroupLines(frags)
	require.Len(t, lines, 3)
	assert.Equal(t, "Jane Doe", lines[0].Text())
	assert.Equal(t, "Boston", lines[1].Text())
	assert.True(t, lines[1][0].EndOfLine, "行尾标记应转移到前一个片段")
	assert.Equal(t, "Tail", lines[2].Text())
	assert.True(t, lines[2][0].EndOfLine, "输入结束也会结束一行")
}

func TestTypicalCharWidth(t *testing.T) {
	frags := []types.TextFragment{
		{Text: "HEADING", Width: 140, Height: 20, FontID: "F2"},
		{Text: "body", Width: 20, Height: 10, FontID: "F1"},
		{Text: "text!", Width: 25, Height: 10, FontID: "F1"},
	}
	assert.InDelta(t, 5.0, TypicalCharWidth(frags), 1e-9)
	assert.Equal(t, 0.0, TypicalCharWidth(nil))
}

func TestMergeLine_RepairsSplitWord(t *testing.T) {
	line := types.Line{
		frag("Eng", 0, 0, false),
		frag("ineer", 16, 0, false), // 间距 1pt
		frag("Acme", 100, 0, true),  // 间距远大于字符宽度
	}
	merged := MergeLine(line, 5)
	require.Len(t, merged, 2)
	assert.Equal(t, "Engineer", merged[0].Text)
	assert.InDelta(t, 41.0, merged[0].Width, 1e-9, "宽度应延伸到合并后的视觉范围")
	assert.Equal(t, "Acme", merged[1].Text)
	assert.True(t, merged[1].EndOfLine)
}

func TestMergeLine_PunctuationJunction(t *testing.T) {
	tests := []struct {
		left, right string
		want        string
	}{
		{"Email:", "jane@x.com", "Email: jane@x.com"},
		{"Boston,", "MA", "Boston, MA"},
		{"Go", "|Python", "Go |Python"},
		{"•", "Built", "• Built"},
		{"Acme", "Corp", "AcmeCorp"},
		{"Acme ", "Corp", "Acme Corp"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			l := frag(tt.left, 0, 0, false)
			r := frag(tt.right, l.Width+2, 0, true)
			merged := MergeLine(types.Line{l, r}, 5)
			require.Len(t, merged, 1)
			assert.Equal(t, tt.want, merged[0].Text)
		})
	}
}

func TestMergeLine_Idempotent(t *testing.T) {
	frags := []types.TextFragment{
		frag("Soft", 0, 0, false),
		frag("ware", 21, 0, false),
		frag("Engineer", 70, 0, false),
		frag("Jan", 200, 0, false),
		frag("2020", 218, 0, true),
		frag("Built", 0, 12, false),
		frag("X", 27, 12, true),
	}
	first := Reconstruct(frags)
	w := TypicalCharWidth(frags)
	for _, line := range first {
		again := MergeLine(line, w)
		assert.Equal(t, line, again, "对已合并的行再次合并不应产生变化")
	}
}

func TestMergeLine_NoWidthNoMerge(t *testing.T) {
	line := types.Line{frag("a", 0, 0, false), frag("b", 5, 0, true)}
	assert.Len(t, MergeLine(line, 0), 2)
}
