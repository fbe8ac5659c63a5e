package evtext

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestProjectRefresh(t *testing.T) {
	root := writeTree(t, map[string]string{
		"scripts/town.evs": "Label @TownGreeting\n" +
			"  SET_NAME(3, '101')\n" +
			"  MSG('ev_town', 'morning')\n",
		"assets/ev_town.txt": `labelDataArray:
- labelName: Morning
  tagDataArray:
  - tagIndex: 3
    groupID: 1
  wordDataArray:
  - str: 'Hello '
    tagIndex: 0
    eventID: 0
  - str: '!'
    eventID: 3
`,
		"assets/speakername.txt": speakerDump,
	})

	cfg := DefaultConfig()
	cfg.ScriptDir = filepath.Join(root, "scripts")
	cfg.AssetDir = filepath.Join(root, "assets")

	p := NewProjectWithSchema(cfg, testSchema(), nopLogger())
	require.NoError(t, p.Refresh())
	assert.Equal(t, uint64(1), p.Generation())

	t.Run("store holds decoded assets by base name", func(t *testing.T) {
		msg, ok := p.Store.Message("ev_town", "Morning")
		require.True(t, ok)
		assert.Equal(t, "Hello {3:1}!{r}", msg.Text)
	})

	t.Run("index sees the script tree", func(t *testing.T) {
		def, ok := p.Index.Definition("TownGreeting")
		require.True(t, ok)
		assert.Equal(t, 1, def.Line)
	})

	t.Run("trace runs over real files", func(t *testing.T) {
		script := filepath.Join(root, "scripts", "town.evs")
		res := p.Tracer.Resolve(TraceRequest{File: script, Line: 3, TagIndex: 3, Group: 1})
		require.True(t, res.Resolved)
		assert.Equal(t, "SET_NAME", res.Command)
		assert.Equal(t, "101", res.Value)
	})

	t.Run("render resolves through the speaker table", func(t *testing.T) {
		msg, _ := p.Store.Message("ev_town", "Morning")
		script := filepath.Join(root, "scripts", "town.evs")
		out := p.RenderMessage(msg, script, 3)
		assert.Equal(t, "Hello Alice!\n\n", out)
	})

	t.Run("refresh bumps the generation", func(t *testing.T) {
		require.NoError(t, p.Refresh())
		assert.Equal(t, uint64(2), p.Generation())
	})
}

func TestProjectRefreshMissingTree(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScriptDir = filepath.Join(t.TempDir(), "nope")
	cfg.AssetDir = cfg.ScriptDir

	p := NewProjectWithSchema(cfg, testSchema(), nopLogger())
	assert.Error(t, p.Refresh())
}

func TestStoreKey(t *testing.T) {
	assert.Equal(t, "ev_town", storeKey(filepath.Join("a", "b", "EV_Town.TXT")))
	assert.Equal(t, "speakername", storeKey("speakername.asset"))
}
