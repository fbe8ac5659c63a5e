package evtext

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// ParamDef describes one parameter position of a scripted command.
// Types is the semantic type tag set ("name", "number", "label", ...);
// DependsOn names the argument index the parameter's value depends on,
// or -1 when independent.
type ParamDef struct {
	Index     int
	Types     []string
	DependsOn int
}

// HasType reports whether the parameter carries the given type tag.
func (p ParamDef) HasType(tag string) bool {
	for _, t := range p.Types {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// CommandDef is the schema of one command: its name and ordered
// parameter definitions.
type CommandDef struct {
	Name   string
	Params []ParamDef
}

// CommandSchema maps command names to their parameter schemas. Lookup
// is case insensitive; script corpora are not consistent about casing.
type CommandSchema struct {
	commands map[string]CommandDef
}

// NewCommandSchema builds a schema from definitions, for embedding and
// tests. Later duplicates of a name replace earlier ones.
func NewCommandSchema(defs []CommandDef) *CommandSchema {
	cs := &CommandSchema{commands: make(map[string]CommandDef, len(defs))}
	for _, def := range defs {
		cs.commands[strings.ToUpper(def.Name)] = def
	}
	return cs
}

// LoadCommandSchema reads a command definition file. The file is JSON
// of the form {"commands": {"NAME": {"params": [{"index": 0, "types":
// ["name"], "dependsOn": 1}, ...]}}}; unknown keys are ignored so hint
// files with extra annotations load unchanged.
func LoadCommandSchema(path string) (*CommandSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("command schema: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("command schema %s: invalid JSON", path)
	}

	var defs []CommandDef
	gjson.GetBytes(data, "commands").ForEach(func(name, cmd gjson.Result) bool {
		def := CommandDef{Name: name.String()}
		cmd.Get("params").ForEach(func(_, param gjson.Result) bool {
			pd := ParamDef{
				Index:     int(param.Get("index").Int()),
				DependsOn: -1,
			}
			if dep := param.Get("dependsOn"); dep.Exists() {
				pd.DependsOn = int(dep.Int())
			}
			param.Get("types").ForEach(func(_, t gjson.Result) bool {
				pd.Types = append(pd.Types, t.String())
				return true
			})
			def.Params = append(def.Params, pd)
			return true
		})
		sort.Slice(def.Params, func(i, j int) bool {
			return def.Params[i].Index < def.Params[j].Index
		})
		defs = append(defs, def)
		return true
	})

	return NewCommandSchema(defs), nil
}

// Command looks up a command definition by name.
func (cs *CommandSchema) Command(name string) (CommandDef, bool) {
	def, ok := cs.commands[strings.ToUpper(name)]
	return def, ok
}

// Len returns the number of known commands.
func (cs *CommandSchema) Len() int {
	return len(cs.commands)
}

// LabelParam returns the index of the first parameter tagged as a
// label target, for recognizing call sites, or -1 when the command
// never transfers control.
func (cs *CommandSchema) LabelParam(name string) int {
	def, ok := cs.Command(name)
	if !ok {
		return -1
	}
	for _, p := range def.Params {
		if p.HasType("label") {
			return p.Index
		}
	}
	return -1
}
