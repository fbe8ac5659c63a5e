package evtext

import (
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/rs/zerolog"
)

// LabelGrammar selects which label declaration syntax the index
// recognizes. The corpus contains both a "Label @name" form and a bare
// "name:" form; GrammarAuto accepts either.
type LabelGrammar int

const (
	GrammarAuto LabelGrammar = iota
	GrammarAt
	GrammarColon
)

// labelKeyword is the declaration keyword of the @ grammar.
const labelKeyword = "Label"

// ScriptIndex maps label names to their definition sites and to the
// call sites that reference them. A rebuild computes a fresh snapshot
// and publishes it with an atomic pointer swap, so readers never see a
// partially built structure.
type ScriptIndex struct {
	schema  *CommandSchema
	grammar LabelGrammar
	log     zerolog.Logger
	snap    atomic.Pointer[indexSnapshot]
}

type indexSnapshot struct {
	defs    map[string]LabelDef
	callers map[string][]CallSite
}

// NewScriptIndex creates an empty index. The schema identifies which
// command parameters are jump targets.
func NewScriptIndex(schema *CommandSchema, grammar LabelGrammar, log zerolog.Logger) *ScriptIndex {
	ix := &ScriptIndex{schema: schema, grammar: grammar, log: log}
	ix.snap.Store(&indexSnapshot{
		defs:    make(map[string]LabelDef),
		callers: make(map[string][]CallSite),
	})
	return ix
}

// Grammar returns the label grammar the index was built with.
func (ix *ScriptIndex) Grammar() LabelGrammar {
	return ix.grammar
}

// Rebuild recomputes the whole index from the given script files.
// read supplies file contents; a file that cannot be read is logged
// and skipped. The new snapshot replaces the old one wholesale.
func (ix *ScriptIndex) Rebuild(paths []string, read func(string) (string, error)) {
	snap := &indexSnapshot{
		defs:    make(map[string]LabelDef),
		callers: make(map[string][]CallSite),
	}

	for _, path := range paths {
		content, err := read(path)
		if err != nil {
			ix.log.Warn().Str("file", path).Err(err).Msg("script skipped")
			continue
		}
		ix.indexFile(snap, path, content)
	}

	ix.snap.Store(snap)
}

// indexFile scans one script in a single pass for label definitions
// and call references.
func (ix *ScriptIndex) indexFile(snap *indexSnapshot, path, content string) {
	for i, line := range strings.Split(content, "\n") {
		lineNo := i + 1

		if name, ok := LabelDefName(line, ix.grammar); ok {
			key := strings.ToLower(name)
			if prev, dup := snap.defs[key]; dup {
				ix.log.Warn().
					Str("label", name).
					Str("kept", path).
					Str("shadowed", prev.File).
					Msg("duplicate label definition, last registered wins")
			}
			snap.defs[key] = LabelDef{Name: name, File: path, Line: lineNo}
			continue
		}

		inv, ok := ParseInvocation(line)
		if !ok {
			continue
		}
		argIdx := ix.schema.LabelParam(inv.Name)
		if argIdx < 0 || argIdx >= len(inv.Args) {
			continue
		}
		target, quoted := quotedLiteral(inv.Args[argIdx])
		if !quoted || target == "" {
			continue
		}
		key := strings.ToLower(target)
		snap.callers[key] = append(snap.callers[key], CallSite{
			File:   path,
			Line:   lineNo,
			Target: target,
		})
	}
}

// Definition returns the authoritative location of a label.
func (ix *ScriptIndex) Definition(label string) (LabelDef, bool) {
	def, ok := ix.snap.Load().defs[strings.ToLower(label)]
	return def, ok
}

// Callers returns every recorded call site targeting the label.
func (ix *ScriptIndex) Callers(label string) []CallSite {
	return ix.snap.Load().callers[strings.ToLower(label)]
}

// Labels returns the names of all defined labels.
func (ix *ScriptIndex) Labels() []string {
	snap := ix.snap.Load()
	names := make([]string, 0, len(snap.defs))
	for _, def := range snap.defs {
		names = append(names, def.Name)
	}
	return names
}

// LabelDefName recognizes a label declaration line under the given
// grammar and returns the declared name.
func LabelDefName(line string, grammar LabelGrammar) (string, bool) {
	trimmed := strings.TrimSpace(line)

	if grammar == GrammarAuto || grammar == GrammarAt {
		if rest, ok := strings.CutPrefix(trimmed, labelKeyword+" @"); ok {
			name := identPrefix(rest)
			if name != "" {
				return name, true
			}
		}
	}

	if grammar == GrammarAuto || grammar == GrammarColon {
		if name, ok := strings.CutSuffix(trimmed, ":"); ok {
			if name != "" && name == identPrefix(name) && !unicode.IsDigit(rune(name[0])) {
				return name, true
			}
		}
	}

	return "", false
}

// identPrefix returns the leading identifier run of s.
func identPrefix(s string) string {
	for i, r := range s {
		if !isIdentRune(r) {
			return s[:i]
		}
	}
	return s
}

// quotedLiteral strips single quote wrapping and reports whether the
// argument really was a quoted literal. Dynamic targets (bare
// identifiers, computed expressions) are not indexable.
func quotedLiteral(arg string) (string, bool) {
	if len(arg) >= 2 && strings.HasPrefix(arg, "'") && strings.HasSuffix(arg, "'") {
		return arg[1 : len(arg)-1], true
	}
	return arg, false
}
