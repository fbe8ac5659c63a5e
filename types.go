package evtext

import "fmt"

// Message is one decoded message owned by an asset file and a label.
// Text is UTF-8 with embedded control macros ({n}, {r}, {f}) and
// placeholder tokens ({tagIndex:groupId}).
type Message struct {
	File  string
	Label string
	Text  string
}

// TagRef is one entry of a label's tag definition list: the numeric
// address of a dynamic value and its group category.
type TagRef struct {
	Index int
	Group int
}

// LabelDef is the authoritative definition site of a script label.
type LabelDef struct {
	Name string
	File string
	Line int
}

// CallSite is a location in script source that names a label as a
// jump or call target.
type CallSite struct {
	File   string
	Line   int
	Target string
}

// TraceRequest identifies one placeholder to resolve: the script
// location it is displayed from plus its tag index and group.
type TraceRequest struct {
	File     string
	Line     int
	TagIndex int
	Group    int
}

// TraceResult is the outcome of a backward trace. Resolved is false
// both when no writer was found and when the step budget ran out;
// neither is an error. Value holds the writer's depends-on argument
// when the schema declares one.
type TraceResult struct {
	Command  string
	Value    string
	Resolved bool
	Steps    int
}

// Macro tokens emitted by the decoder.
const (
	MacroSoftBreak  = "{n}"
	MacroPageReset  = "{r}"
	MacroPageRepeat = "{f}"
)

// Slot types matched against command schema type tags.
const (
	SlotName   = "name"
	SlotNumber = "number"
)

// SlotForGroup maps a placeholder group to the slot type a writer
// command must declare. Unknown groups fall back to the name slot.
func SlotForGroup(group int) string {
	switch group {
	case 2:
		return SlotNumber
	default:
		return SlotName
	}
}

// DecodeError reports a failure scoped to a single asset file. Batch
// decoding logs it and moves on to the next file.
type DecodeError struct {
	File    string
	Line    int
	Message string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("decode %s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("decode %s: %s", e.File, e.Message)
}
