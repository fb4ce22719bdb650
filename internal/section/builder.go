package section

import (
	"strings"

	"resume-parser-go/internal/types"
)

// builder 累积章节并合并重复的章节标识
type builder struct {
	blocks  []types.SectionBlock
	index   map[types.SectionID]int
	current *types.SectionBlock
	// implicit 当前章节是否为文档开头的隐式 profile
	implicit bool
}

func newBuilder() *builder {
	return &builder{
		index:    make(map[types.SectionID]int),
		current:  &types.SectionBlock{ID: types.SectionProfile},
		implicit: true,
	}
}

func (b *builder) addLine(text string, raw types.Line) {
	b.current.Lines = append(b.current.Lines, text)
	if raw != nil {
		b.current.RawLines = append(b.current.RawLines, raw)
	}
}

func (b *builder) open(id types.SectionID, heading string) {
	b.flush()
	b.current = &types.SectionBlock{ID: id, Heading: heading}
	b.implicit = false
}

func (b *builder) flush() {
	cur := b.current
	if cur == nil {
		return
	}
	cur.Lines = trimBlank(cur.Lines)
	if b.implicit && len(cur.Lines) == 0 {
		return
	}
	if i, ok := b.index[cur.ID]; ok {
		existing := &b.blocks[i]
		if len(cur.Lines) > 0 {
			if len(existing.Lines) > 0 {
				existing.Lines = append(existing.Lines, "")
			}
			existing.Lines = append(existing.Lines, cur.Lines...)
			existing.RawLines = append(existing.RawLines, cur.RawLines...)
		}
		return
	}
	b.index[cur.ID] = len(b.blocks)
	b.blocks = append(b.blocks, *cur)
}

func (b *builder) finish() []types.SectionBlock {
	b.flush()
	b.current = nil
	if b.blocks == nil {
		return []types.SectionBlock{}
	}
	return b.blocks
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start == end {
		return nil
	}
	out := make([]string, 0, end-start)
	// 连续空行压缩为一个分隔行
	for i := start; i < end; i++ {
		if lines[i] == "" && len(out) > 0 && out[len(out)-1] == "" {
			continue
		}
		out = append(out, lines[i])
	}
	return out
}
