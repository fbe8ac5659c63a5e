package evtext

import (
	"strconv"
	"strings"
)

// SegmentKind classifies one piece of a decoded message.
type SegmentKind int

const (
	SegText SegmentKind = iota
	SegSoftBreak
	SegPageReset
	SegPageRepeat
	SegPlaceholder
)

// Segment is one run of a decoded message: literal text, a control
// macro, or a dynamic placeholder.
type Segment struct {
	Kind     SegmentKind
	Text     string
	TagIndex int
	Group    int
}

// ParseSegments splits decoded message text into its ordered segments.
// Both placeholder spellings are accepted: {3:2} and the short {3},
// which implies group 1. Braces that do not form a known token stay
// literal text.
func ParseSegments(text string) []Segment {
	var segs []Segment
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			segs = append(segs, Segment{Kind: SegText, Text: literal.String()})
			literal.Reset()
		}
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '{' {
			literal.WriteRune(runes[i])
			continue
		}

		end := -1
		for j := i + 1; j < len(runes); j++ {
			if runes[j] == '}' {
				end = j
				break
			}
			if runes[j] == '{' {
				break
			}
		}
		if end < 0 {
			literal.WriteRune(runes[i])
			continue
		}

		seg, ok := tokenSegment(string(runes[i+1 : end]))
		if !ok {
			literal.WriteRune(runes[i])
			continue
		}

		flush()
		segs = append(segs, seg)
		i = end
	}

	flush()
	return segs
}

// tokenSegment interprets the body of one {...} token.
func tokenSegment(body string) (Segment, bool) {
	switch body {
	case "n":
		return Segment{Kind: SegSoftBreak}, true
	case "r":
		return Segment{Kind: SegPageReset}, true
	case "f":
		return Segment{Kind: SegPageRepeat}, true
	}

	tagPart, groupPart, hasGroup := strings.Cut(body, ":")
	tag, err := strconv.Atoi(tagPart)
	if err != nil {
		return Segment{}, false
	}
	group := 1
	if hasGroup {
		group, err = strconv.Atoi(groupPart)
		if err != nil {
			return Segment{}, false
		}
	}
	return Segment{Kind: SegPlaceholder, TagIndex: tag, Group: group}, true
}

// RenderMessage flattens a decoded message for display at a script
// location. Placeholders are resolved through the backward tracer;
// when the trace comes back unresolved the raw tag index is shown
// instead. Soft breaks become newlines, page marks become blank lines.
func (p *Project) RenderMessage(msg Message, originFile string, originLine int) string {
	var out strings.Builder

	for _, seg := range ParseSegments(msg.Text) {
		switch seg.Kind {
		case SegText:
			out.WriteString(seg.Text)
		case SegSoftBreak:
			out.WriteString("\n")
		case SegPageReset, SegPageRepeat:
			out.WriteString("\n\n")
		case SegPlaceholder:
			out.WriteString(p.renderPlaceholder(seg, originFile, originLine))
		}
	}

	return out.String()
}

// renderPlaceholder shows the traced value of a placeholder. A name
// slot value that is itself a speaker id resolves once more through
// the speaker table.
func (p *Project) renderPlaceholder(seg Segment, originFile string, originLine int) string {
	res := p.Tracer.Resolve(TraceRequest{
		File:     originFile,
		Line:     originLine,
		TagIndex: seg.TagIndex,
		Group:    seg.Group,
	})
	if !res.Resolved {
		return "[" + strconv.Itoa(seg.TagIndex) + "]"
	}

	if res.Value == "" {
		return "[" + res.Command + "]"
	}
	if SlotForGroup(seg.Group) == SlotName {
		if id, err := strconv.Atoi(res.Value); err == nil {
			if name, ok := p.Store.SpeakerName(strconv.Itoa(id)); ok {
				return name
			}
		}
	}
	return res.Value
}
