package evtext

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// MessageStore aggregates decoder output across every asset file,
// keyed by lowercased file name and lowercased label. Rebuilds replace
// the whole snapshot atomically; a generation counter lets consumers
// poll for changes instead of subscribing to an emitter.
type MessageStore struct {
	speakerFile string
	log         zerolog.Logger
	snap        atomic.Pointer[storeSnapshot]
	gen         atomic.Uint64
}

type storeSnapshot struct {
	files    map[string]map[string]Message
	speakers map[string]Message
}

// NewMessageStore creates an empty store. speakerFile names the asset
// (lowercased, extension stripped) holding the speaker name table.
func NewMessageStore(speakerFile string, log zerolog.Logger) *MessageStore {
	ms := &MessageStore{
		speakerFile: strings.ToLower(speakerFile),
		log:         log,
	}
	ms.snap.Store(&storeSnapshot{
		files:    make(map[string]map[string]Message),
		speakers: make(map[string]Message),
	})
	return ms
}

// Rebuild decodes every asset wholesale and swaps in the result.
// assets maps the store key (lowercased base name) to raw dump text.
// A file that fails to decode is logged and skipped; the rest of the
// corpus still loads.
func (ms *MessageStore) Rebuild(dec *Decoder, assets map[string]string) {
	snap := &storeSnapshot{
		files:    make(map[string]map[string]Message, len(assets)),
		speakers: make(map[string]Message),
	}

	for name, raw := range assets {
		key := strings.ToLower(name)

		var decoded map[string]Message
		var err error
		if key == ms.speakerFile && ms.speakerFile != "" {
			decoded, err = dec.DecodeSpeaker(raw, name)
		} else {
			decoded, err = dec.Decode(raw, name)
		}
		if err != nil {
			ms.log.Warn().Str("file", name).Err(err).Msg("asset skipped")
			continue
		}
		if len(decoded) == 0 {
			continue
		}

		snap.files[key] = decoded
		if key == ms.speakerFile {
			snap.speakers = decoded
		}
	}

	ms.snap.Store(snap)
	ms.gen.Add(1)
}

// Message looks up one decoded message. Both keys are matched case
// insensitively.
func (ms *MessageStore) Message(file, label string) (Message, bool) {
	labels, ok := ms.snap.Load().files[strings.ToLower(file)]
	if !ok {
		return Message{}, false
	}
	msg, ok := labels[strings.ToLower(label)]
	return msg, ok
}

// Files returns the sorted store keys of every decoded asset.
func (ms *MessageStore) Files() []string {
	snap := ms.snap.Load()
	names := make([]string, 0, len(snap.files))
	for name := range snap.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Labels returns the sorted labels decoded from one asset file.
func (ms *MessageStore) Labels(file string) []string {
	labels := ms.snap.Load().files[strings.ToLower(file)]
	names := make([]string, 0, len(labels))
	for _, msg := range labels {
		names = append(names, msg.Label)
	}
	sort.Strings(names)
	return names
}

// SpeakerName resolves a speaker label through the name table asset.
// Macro tokens are dropped from the stored text, so a table entry
// decoded as "Alice{n}" resolves to "Alice".
func (ms *MessageStore) SpeakerName(label string) (string, bool) {
	msg, ok := ms.snap.Load().speakers[strings.ToLower(label)]
	if !ok {
		return "", false
	}

	var name strings.Builder
	for _, seg := range ParseSegments(msg.Text) {
		if seg.Kind == SegText {
			name.WriteString(seg.Text)
		}
	}
	return name.String(), true
}

// Generation returns the rebuild counter. Consumers poll it and
// refresh whatever they derived from the store when it advances.
func (ms *MessageStore) Generation() uint64 {
	return ms.gen.Load()
}
