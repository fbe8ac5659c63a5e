package evtext

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

func TestReadTextFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("utf-8 passthrough", func(t *testing.T) {
		path := filepath.Join(dir, "plain.txt")
		require.NoError(t, os.WriteFile(path, []byte("こんにちは"), 0o644))

		got, err := ReadTextFile(path, "utf-8")
		require.NoError(t, err)
		assert.Equal(t, "こんにちは", got)
	})

	t.Run("shift-jis converts to utf-8", func(t *testing.T) {
		raw, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("こんにちは"))
		require.NoError(t, err)
		path := filepath.Join(dir, "sjis.txt")
		require.NoError(t, os.WriteFile(path, raw, 0o644))

		got, err := ReadTextFile(path, "sjis")
		require.NoError(t, err)
		assert.Equal(t, "こんにちは", got)
	})

	t.Run("unknown encoding name", func(t *testing.T) {
		path := filepath.Join(dir, "plain2.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		_, err := ReadTextFile(path, "klingon")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadTextFile(filepath.Join(dir, "absent.txt"), "utf-8")
		assert.Error(t, err)
	})
}
