package evtext

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// DefaultStepLimit bounds how many frames one backward trace may
// expand before giving up.
const DefaultStepLimit = 50

// Tracer resolves a placeholder to the command that most recently
// wrote its backing value, by bounded backward breadth first search
// over the reverse call graph. It is a heuristic: the first writer
// reached in FIFO frame order wins, which is not a sound last-write
// proof.
type Tracer struct {
	schema    *CommandSchema
	index     *ScriptIndex
	read      func(path string) (string, error)
	stepLimit int
	log       zerolog.Logger

	seq     atomic.Uint64
	applyMu sync.Mutex
	applied uint64
}

// NewTracer creates a tracer over the given index and schema. read
// supplies script file contents (already converted to UTF-8).
func NewTracer(schema *CommandSchema, index *ScriptIndex, read func(string) (string, error), log zerolog.Logger) *Tracer {
	return &Tracer{
		schema:    schema,
		index:     index,
		read:      read,
		stepLimit: DefaultStepLimit,
		log:       log,
	}
}

// SetStepLimit overrides the search budget. Values below one are
// ignored.
func (tr *Tracer) SetStepLimit(limit int) {
	if limit >= 1 {
		tr.stepLimit = limit
	}
}

// traceFrame is one pending scan position in the frame arena.
type traceFrame struct {
	file string
	line int
}

// Resolve runs the backward search for one placeholder. It always
// terminates: each expanded frame spends one step of the budget, and
// revisiting a label abandons that branch. The zero TraceResult with
// Resolved false stands for both "no writer reachable" and "budget
// exhausted".
func (tr *Tracer) Resolve(req TraceRequest) TraceResult {
	slot := SlotForGroup(req.Group)
	grammar := tr.index.Grammar()

	// Worklist as an arena of frames plus a head index, so the budget
	// and cycle guard stay inspectable.
	frames := []traceFrame{{file: req.File, line: req.Line}}
	head := 0
	visited := make(map[string]struct{})
	lineCache := make(map[string][]string)
	steps := 0

	for head < len(frames) && steps < tr.stepLimit {
		frame := frames[head]
		head++
		steps++

		lines, ok := tr.fileLines(lineCache, frame.file)
		if !ok {
			continue
		}

		start := frame.line - 1
		if start > len(lines) {
			start = len(lines)
		}
		for ln := start; ln >= 1; ln-- {
			text := lines[ln-1]

			if name, isLabel := LabelDefName(text, grammar); isLabel {
				key := strings.ToLower(name)
				if _, seen := visited[key]; seen {
					break
				}
				visited[key] = struct{}{}
				for _, cs := range tr.index.Callers(name) {
					frames = append(frames, traceFrame{file: cs.File, line: cs.Line})
				}
				// Scanning never crosses a block start.
				break
			}

			if cmd, value, found := tr.matchWriter(text, slot, req.TagIndex); found {
				return TraceResult{Command: cmd, Value: value, Resolved: true, Steps: steps}
			}
		}
	}

	return TraceResult{Steps: steps}
}

// matchWriter checks whether the line invokes a command with a
// parameter of the wanted slot type whose argument equals the tag
// index. On a match the depends-on argument is captured as the written
// value.
func (tr *Tracer) matchWriter(line, slot string, tagIndex int) (string, string, bool) {
	inv, ok := ParseInvocation(line)
	if !ok {
		return "", "", false
	}
	def, ok := tr.schema.Command(inv.Name)
	if !ok {
		return "", "", false
	}

	for _, param := range def.Params {
		if param.Index < 0 || param.Index >= len(inv.Args) {
			continue
		}
		if !param.HasType(slot) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(inv.Args[param.Index]))
		if err != nil || n != tagIndex {
			continue
		}

		value := ""
		if param.DependsOn >= 0 && param.DependsOn < len(inv.Args) {
			value, _ = quotedLiteral(inv.Args[param.DependsOn])
		}
		return inv.Name, value, true
	}
	return "", "", false
}

// fileLines reads and caches one script file for the duration of a
// trace. A read failure kills the requesting frame only.
func (tr *Tracer) fileLines(cache map[string][]string, path string) ([]string, bool) {
	if lines, ok := cache[path]; ok {
		return lines, lines != nil
	}
	content, err := tr.read(path)
	if err != nil {
		tr.log.Debug().Str("file", path).Err(err).Msg("trace frame dropped")
		cache[path] = nil
		return nil, false
	}
	lines := strings.Split(content, "\n")
	cache[path] = lines
	return lines, true
}

// ResolveAsync runs Resolve on its own goroutine and hands the result
// to apply. Dispatches carry a monotonically increasing sequence
// number; a result that finishes after a newer dispatch has already
// applied is discarded, so a stale trace never overwrites a fresh one.
func (tr *Tracer) ResolveAsync(req TraceRequest, apply func(TraceResult)) {
	seq := tr.seq.Add(1)
	go func() {
		res := tr.Resolve(req)

		tr.applyMu.Lock()
		defer tr.applyMu.Unlock()
		if seq < tr.applied {
			return
		}
		tr.applied = seq
		apply(res)
	}()
}
