package evtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSegments(t *testing.T) {
	t.Run("macros and placeholders interleave with text", func(t *testing.T) {
		segs := ParseSegments("Hi{n}there{3:2}{r}{f}")
		require.Len(t, segs, 6)
		assert.Equal(t, Segment{Kind: SegText, Text: "Hi"}, segs[0])
		assert.Equal(t, SegSoftBreak, segs[1].Kind)
		assert.Equal(t, Segment{Kind: SegText, Text: "there"}, segs[2])
		assert.Equal(t, Segment{Kind: SegPlaceholder, TagIndex: 3, Group: 2}, segs[3])
		assert.Equal(t, SegPageReset, segs[4].Kind)
		assert.Equal(t, SegPageRepeat, segs[5].Kind)
	})

	t.Run("short placeholder form implies group one", func(t *testing.T) {
		segs := ParseSegments("{4}")
		require.Len(t, segs, 1)
		assert.Equal(t, Segment{Kind: SegPlaceholder, TagIndex: 4, Group: 1}, segs[0])
	})

	t.Run("unknown brace runs stay literal", func(t *testing.T) {
		segs := ParseSegments("a{zz}b{")
		require.Len(t, segs, 1)
		assert.Equal(t, Segment{Kind: SegText, Text: "a{zz}b{"}, segs[0])
	})

	t.Run("empty text yields no segments", func(t *testing.T) {
		assert.Empty(t, ParseSegments(""))
	})
}

func TestSlotForGroup(t *testing.T) {
	assert.Equal(t, SlotName, SlotForGroup(1))
	assert.Equal(t, SlotNumber, SlotForGroup(2))
	assert.Equal(t, SlotName, SlotForGroup(0))
	assert.Equal(t, SlotName, SlotForGroup(99))
}

func renderProject(t *testing.T, files map[string]string) *Project {
	t.Helper()
	cfg := DefaultConfig()
	p := NewProjectWithSchema(cfg, testSchema(), nopLogger())

	read := func(path string) (string, error) {
		content, ok := files[path]
		if !ok {
			return "", &DecodeError{File: path, Message: "unreadable"}
		}
		return content, nil
	}
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	p.Index.Rebuild(paths, read)
	p.Tracer = NewTracer(p.Schema, p.Index, read, nopLogger())
	return p
}

func TestRenderMessage(t *testing.T) {
	p := renderProject(t, map[string]string{
		"a.evs": "Label @Foo\n" +
			"  SET_NAME(3, 'Alice')\n" +
			"  MSG('greeting')\n",
	})

	msg := Message{File: "ev_a", Label: "Greeting", Text: "Hello {3:1}!{n}Bye"}

	t.Run("resolved placeholder shows traced value", func(t *testing.T) {
		out := p.RenderMessage(msg, "a.evs", 3)
		assert.Equal(t, "Hello Alice!\nBye", out)
	})

	t.Run("unresolved placeholder falls back to raw index", func(t *testing.T) {
		out := p.RenderMessage(msg, "missing.evs", 3)
		assert.Equal(t, "Hello [3]!\nBye", out)
	})
}
