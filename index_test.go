package evtext

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *CommandSchema {
	return NewCommandSchema([]CommandDef{
		{Name: "SET_NAME", Params: []ParamDef{
			{Index: 0, Types: []string{"name"}, DependsOn: 1},
		}},
		{Name: "SET_NUM", Params: []ParamDef{
			{Index: 0, Types: []string{"number"}, DependsOn: -1},
		}},
		{Name: "CALL", Params: []ParamDef{
			{Index: 0, Types: []string{"label"}, DependsOn: -1},
		}},
	})
}

func buildIndex(t *testing.T, grammar LabelGrammar, files map[string]string) *ScriptIndex {
	t.Helper()
	ix := NewScriptIndex(testSchema(), grammar, nopLogger())
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	ix.Rebuild(paths, func(path string) (string, error) {
		content, ok := files[path]
		if !ok {
			return "", errors.New("unreadable")
		}
		return content, nil
	})
	return ix
}

func TestIndexDefinitionAndCallers(t *testing.T) {
	ix := buildIndex(t, GrammarAuto, map[string]string{
		"a.evs": "Label @Foo\n  MSG('hi')\n",
		"b.evs": "Label @Bar\n  CALL('Foo')\n",
	})

	def, ok := ix.Definition("Foo")
	require.True(t, ok)
	assert.Equal(t, "a.evs", def.File)
	assert.Equal(t, 1, def.Line)

	callers := ix.Callers("Foo")
	require.Len(t, callers, 1)
	assert.Equal(t, CallSite{File: "b.evs", Line: 2, Target: "Foo"}, callers[0])
}

func TestIndexCaseInsensitiveLookup(t *testing.T) {
	ix := buildIndex(t, GrammarAuto, map[string]string{
		"a.evs": "Label @MainEvent\n",
	})

	def, ok := ix.Definition("MAINEVENT")
	require.True(t, ok)
	assert.Equal(t, "MainEvent", def.Name)
}

func TestIndexLastDefinitionWins(t *testing.T) {
	ix := buildIndex(t, GrammarAuto, map[string]string{
		"only.evs": "Label @Dup\n  nop()\nLabel @Dup\n",
	})

	def, ok := ix.Definition("Dup")
	require.True(t, ok)
	assert.Equal(t, 3, def.Line)
}

func TestIndexColonGrammar(t *testing.T) {
	src := "Intro:\n  CALL('Outro')\nOutro:\n"

	t.Run("colon grammar", func(t *testing.T) {
		ix := buildIndex(t, GrammarColon, map[string]string{"a.evs": src})
		def, ok := ix.Definition("Intro")
		require.True(t, ok)
		assert.Equal(t, 1, def.Line)
		require.Len(t, ix.Callers("Outro"), 1)
	})

	t.Run("auto accepts both forms", func(t *testing.T) {
		ix := buildIndex(t, GrammarAuto, map[string]string{
			"a.evs": "Intro:\nLabel @Other\n",
		})
		_, ok := ix.Definition("Intro")
		assert.True(t, ok)
		_, ok = ix.Definition("Other")
		assert.True(t, ok)
	})

	t.Run("at grammar ignores colon form", func(t *testing.T) {
		ix := buildIndex(t, GrammarAt, map[string]string{"a.evs": src})
		_, ok := ix.Definition("Intro")
		assert.False(t, ok)
	})
}

func TestIndexIgnoresNonLabelArguments(t *testing.T) {
	ix := buildIndex(t, GrammarAuto, map[string]string{
		// SET_NAME's argument is a name slot, not a jump target, and
		// a dynamic CALL target is not a quoted literal.
		"a.evs": "SET_NAME(3, 'Alice')\nCALL(current)\n",
	})

	assert.Empty(t, ix.Callers("Alice"))
	assert.Empty(t, ix.Callers("current"))
}

func TestIndexSkipsUnreadableFile(t *testing.T) {
	ix := NewScriptIndex(testSchema(), GrammarAuto, nopLogger())
	ix.Rebuild([]string{"gone.evs", "ok.evs"}, func(path string) (string, error) {
		if path == "gone.evs" {
			return "", errors.New("boom")
		}
		return "Label @Here\n", nil
	})

	_, ok := ix.Definition("Here")
	assert.True(t, ok)
}

func TestIndexRebuildReplacesWholesale(t *testing.T) {
	ix := NewScriptIndex(testSchema(), GrammarAuto, nopLogger())
	read := func(content string) func(string) (string, error) {
		return func(string) (string, error) { return content, nil }
	}

	ix.Rebuild([]string{"a.evs"}, read("Label @Old\n"))
	_, ok := ix.Definition("Old")
	require.True(t, ok)

	ix.Rebuild([]string{"a.evs"}, read("Label @New\n"))
	_, ok = ix.Definition("Old")
	assert.False(t, ok)
	_, ok = ix.Definition("New")
	assert.True(t, ok)
}
