package evtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const speakerDump = `- labelName: '101'
  wordDataArray:
  - str: 'Alice'
    eventID: 1
- labelName: '102'
  wordDataArray:
  - str: 'Bob'
    eventID: 1
`

const greetingDump = `labelDataArray:
- labelName: Morning
  wordDataArray:
  - str: 'Good morning'
    eventID: 1
`

func rebuiltStore(t *testing.T) *MessageStore {
	t.Helper()
	ms := NewMessageStore("speakername", nopLogger())
	ms.Rebuild(NewDecoder(nopLogger()), map[string]string{
		"ev_greeting": greetingDump,
		"speakername": speakerDump,
	})
	return ms
}

func TestStoreLookup(t *testing.T) {
	ms := rebuiltStore(t)

	t.Run("case insensitive file and label keys", func(t *testing.T) {
		msg, ok := ms.Message("EV_Greeting", "MORNING")
		require.True(t, ok)
		assert.Equal(t, "Good morning{n}", msg.Text)
	})

	t.Run("unknown file", func(t *testing.T) {
		_, ok := ms.Message("ev_missing", "morning")
		assert.False(t, ok)
	})

	t.Run("labels are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"Morning"}, ms.Labels("ev_greeting"))
	})
}

func TestStoreSpeakerIndirection(t *testing.T) {
	ms := rebuiltStore(t)

	name, ok := ms.SpeakerName("101")
	require.True(t, ok)
	// Macro tokens do not leak into display names.
	assert.Equal(t, "Alice", name)

	_, ok = ms.SpeakerName("999")
	assert.False(t, ok)
}

func TestStoreSkipsBrokenAsset(t *testing.T) {
	ms := NewMessageStore("speakername", nopLogger())
	ms.Rebuild(NewDecoder(nopLogger()), map[string]string{
		"ev_good":   greetingDump,
		"ev_broken": "no marker here\n",
	})

	_, ok := ms.Message("ev_good", "morning")
	assert.True(t, ok)
	assert.Equal(t, []string{"ev_good"}, ms.Files())
}

func TestStoreGeneration(t *testing.T) {
	ms := NewMessageStore("", nopLogger())
	require.Equal(t, uint64(0), ms.Generation())

	ms.Rebuild(NewDecoder(nopLogger()), map[string]string{"ev_a": greetingDump})
	assert.Equal(t, uint64(1), ms.Generation())

	// A rebuild replaces the snapshot wholesale.
	ms.Rebuild(NewDecoder(nopLogger()), map[string]string{})
	assert.Equal(t, uint64(2), ms.Generation())
	assert.Empty(t, ms.Files())
}
