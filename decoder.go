package evtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Asset dump keys recognized by the decoder.
const (
	keyLabelArray = "labelDataArray:"
	keyLabelName  = "labelName:"
	keyTagArray   = "tagDataArray:"
	keyTagIndex   = "tagIndex:"
	keyGroupID    = "groupID:"
	keyWordArray  = "wordDataArray:"
	keyStr        = "str:"
	keyEventID    = "eventID:"
)

// decodeState is the decoder's position within the nested list
// structure of an asset dump.
type decodeState int

const (
	stateOutside decodeState = iota
	stateLabelArray
	stateTagData
	stateWordData
)

func (s decodeState) String() string {
	switch s {
	case stateOutside:
		return "outside"
	case stateLabelArray:
		return "inLabelArray"
	case stateTagData:
		return "inTagData"
	case stateWordData:
		return "inWordData"
	}
	return "unknown"
}

// wordEntry is the decode-time scratch for one item of a word list.
// Each field is optional; the has flags record which were present.
type wordEntry struct {
	str      string
	eventID  int
	tagIndex int
	hasStr   bool
	hasEvent bool
	hasTag   bool
}

// Decoder converts raw asset dumps into label keyed message text.
// Decoding is pure: no state survives between calls.
type Decoder struct {
	log zerolog.Logger
}

// NewDecoder creates a decoder that reports recoverable oddities
// through the given logger.
func NewDecoder(log zerolog.Logger) *Decoder {
	return &Decoder{log: log}
}

// Decode scans one raw asset dump and returns its label to message
// mapping. A dump without the label array marker yields a DecodeError
// and no messages; callers decoding a batch skip the file and continue.
func (d *Decoder) Decode(raw, fileName string) (map[string]Message, error) {
	return d.decode(raw, fileName, stateOutside)
}

// DecodeSpeaker decodes a speaker-name asset, which is stored already
// inside the label array and carries no outer marker.
func (d *Decoder) DecodeSpeaker(raw, fileName string) (map[string]Message, error) {
	return d.decode(raw, fileName, stateLabelArray)
}

func (d *Decoder) decode(raw, fileName string, initial decodeState) (map[string]Message, error) {
	sc := &labelScan{
		decoder: d,
		file:    fileName,
		state:   initial,
		out:     make(map[string]Message),
	}

	for i, line := range strings.Split(raw, "\n") {
		sc.lineNo = i + 1
		sc.handleLine(line)
	}

	// Final commit and flush for the last label.
	sc.commitWord()
	sc.flushLabel()

	if initial == stateOutside && !sc.sawMarker {
		return nil, &DecodeError{File: fileName, Message: "label data array marker not found"}
	}
	return sc.out, nil
}

// labelScan holds the per-file scratch state of one decode pass.
type labelScan struct {
	decoder *Decoder
	file    string
	lineNo  int
	state   decodeState

	sawMarker bool
	label     string
	text      strings.Builder
	tags      []TagRef

	pendingTag TagRef
	tagOpen    bool

	word wordEntry

	out map[string]Message
}

// handleLine dispatches one line to the current state's handler.
// Label declarations and the array marker are recognized from any
// state so a truncated sub-block never desynchronizes the scan.
func (sc *labelScan) handleLine(line string) {
	if hasKey(line, keyLabelArray) {
		sc.sawMarker = true
		sc.state = stateLabelArray
		return
	}

	if name, ok := keyValue(line, keyLabelName); ok {
		// A label line while still in tag data ends that sub-block;
		// the line itself is consumed as the label transition.
		sc.commitWord()
		sc.flushLabel()
		sc.label = stripQuotes(name)
		sc.tags = nil
		sc.tagOpen = false
		sc.pendingTag = TagRef{}
		sc.state = stateLabelArray
		return
	}

	switch sc.state {
	case stateOutside, stateLabelArray:
		if hasKey(line, keyTagArray) {
			sc.state = stateTagData
		} else if hasKey(line, keyWordArray) {
			sc.state = stateWordData
		}
	case stateTagData:
		sc.handleTagLine(line)
	case stateWordData:
		sc.handleWordLine(line)
	}
}

// handleTagLine accumulates (tagIndex, groupID) pairs. A list item
// marker, or an explicit tagIndex when no entry is open, starts a new
// pending entry; the word array marker flushes and leaves the state.
func (sc *labelScan) handleTagLine(line string) {
	if hasKey(line, keyWordArray) {
		sc.flushTag()
		sc.state = stateWordData
		return
	}

	rest, item := listItem(line)
	if item {
		sc.flushTag()
		sc.pendingTag = TagRef{Group: 1}
		sc.tagOpen = true
		line = rest
	}

	if v, ok := intValue(line, keyTagIndex); ok {
		if !sc.tagOpen {
			sc.pendingTag = TagRef{Group: 1}
			sc.tagOpen = true
		}
		sc.pendingTag.Index = v
	}
	if v, ok := intValue(line, keyGroupID); ok && sc.tagOpen {
		sc.pendingTag.Group = v
	}
}

// handleWordLine accumulates word fields. A list item marker commits
// the previous pending word before starting the next one.
func (sc *labelScan) handleWordLine(line string) {
	if hasKey(line, keyTagArray) {
		sc.commitWord()
		sc.state = stateTagData
		return
	}

	rest, item := listItem(line)
	if item {
		sc.commitWord()
		line = rest
	}

	if v, ok := keyValue(line, keyStr); ok {
		sc.word.str = stripQuotes(v)
		sc.word.hasStr = true
	}
	if v, ok := intValue(line, keyEventID); ok {
		sc.word.eventID = v
		sc.word.hasEvent = true
	}
	if v, ok := intValue(line, keyTagIndex); ok {
		sc.word.tagIndex = v
		sc.word.hasTag = true
	}
}

// flushTag appends the open tag entry to the label's tag list.
func (sc *labelScan) flushTag() {
	if !sc.tagOpen {
		return
	}
	sc.tags = append(sc.tags, sc.pendingTag)
	sc.pendingTag = TagRef{}
	sc.tagOpen = false
}

// commitWord appends the pending word to the label text. The order is
// fixed: literal first, then the placeholder token, then the macro
// derived from the event id.
func (sc *labelScan) commitWord() {
	w := sc.word
	sc.word = wordEntry{}
	if !w.hasStr && !w.hasEvent && !w.hasTag {
		return
	}

	if w.hasStr {
		sc.text.WriteString(w.str)
	}

	if w.hasTag {
		if w.tagIndex >= 0 && w.tagIndex < len(sc.tags) {
			t := sc.tags[w.tagIndex]
			fmt.Fprintf(&sc.text, "{%d:%d}", t.Index, t.Group)
		} else {
			// Reference past the tag list: keep the raw index, group 1.
			fmt.Fprintf(&sc.text, "{%d:1}", w.tagIndex)
		}
	}

	switch {
	case w.hasEvent:
		switch {
		case w.eventID == 1:
			sc.text.WriteString(MacroSoftBreak)
		case w.eventID == 3:
			sc.text.WriteString(MacroPageReset)
		case w.eventID == 4:
			sc.text.WriteString(MacroPageRepeat)
		case w.eventID == 0, w.eventID == 2, w.eventID >= 5:
			// No macro.
		default:
			sc.text.WriteString(MacroSoftBreak)
		}
	case w.hasStr:
		// A literal with no event id still ends its display word.
		sc.text.WriteString(MacroSoftBreak)
	}
}

// flushLabel stores the accumulated text under the current label.
// Labels with an empty name or empty text are dropped.
func (sc *labelScan) flushLabel() {
	label := sc.label
	text := sc.text.String()
	sc.label = ""
	sc.text.Reset()
	if label == "" || text == "" {
		return
	}

	key := strings.ToLower(label)
	if _, dup := sc.out[key]; dup {
		sc.decoder.log.Warn().
			Str("file", sc.file).
			Str("label", label).
			Msg("duplicate label in asset, later entry wins")
	}
	sc.out[key] = Message{File: sc.file, Label: label, Text: text}
}

// hasKey reports whether the line carries the given dump key, either
// directly or as the first field of a list item.
func hasKey(line, key string) bool {
	_, ok := keyValue(line, key)
	return ok
}

// keyValue extracts the scalar following a dump key on the line.
func keyValue(line, key string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if rest, item := listItem(trimmed); item {
		trimmed = rest
	}
	if !strings.HasPrefix(trimmed, key) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(key):]), true
}

// intValue extracts an integer scalar following a dump key.
func intValue(line, key string) (int, bool) {
	v, ok := keyValue(line, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(stripQuotes(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// listItem strips a leading dash marker, returning the remainder and
// whether the line was a list item.
func listItem(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "-" {
		return "", true
	}
	if strings.HasPrefix(trimmed, "- ") {
		return strings.TrimSpace(trimmed[2:]), true
	}
	return trimmed, false
}

// stripQuotes removes one level of single quote wrapping.
func stripQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return s[1 : len(s)-1]
	}
	return s
}
