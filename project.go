package evtext

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Project wires the message store, the script index, the command
// schema and the tracer into one explicitly constructed context.
// Every consumer receives it by reference; there is no process-wide
// accessor.
type Project struct {
	Config *Config
	Schema *CommandSchema
	Store  *MessageStore
	Index  *ScriptIndex
	Tracer *Tracer

	log zerolog.Logger
	gen atomic.Uint64
}

// NewProject loads the command schema and builds an empty project.
// Call Refresh to populate the store and the index.
func NewProject(cfg *Config, log zerolog.Logger) (*Project, error) {
	schema, err := LoadCommandSchema(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}
	return NewProjectWithSchema(cfg, schema, log), nil
}

// NewProjectWithSchema builds a project around an already constructed
// schema, for embedding and tests.
func NewProjectWithSchema(cfg *Config, schema *CommandSchema, log zerolog.Logger) *Project {
	p := &Project{
		Config: cfg,
		Schema: schema,
		Store:  NewMessageStore(cfg.SpeakerFile, log),
		Index:  NewScriptIndex(schema, cfg.LabelGrammar, log),
		log:    log,
	}
	p.Tracer = NewTracer(schema, p.Index, p.readScript, log)
	p.Tracer.SetStepLimit(cfg.StepLimit)
	return p
}

// Refresh rebuilds the script index and the message store wholesale
// from the configured trees. Per-file failures are logged and skipped;
// Refresh itself only fails when a whole tree cannot be walked.
func (p *Project) Refresh() error {
	scripts, err := walkTree(p.Config.ScriptDir, p.Config.ScriptExts)
	if err != nil {
		return err
	}
	p.Index.Rebuild(scripts, p.readScript)

	assetPaths, err := walkTree(p.Config.AssetDir, p.Config.AssetExts)
	if err != nil {
		return err
	}
	assets := make(map[string]string, len(assetPaths))
	for _, path := range assetPaths {
		raw, err := ReadTextFile(path, p.Config.Encoding)
		if err != nil {
			p.log.Warn().Str("file", path).Err(err).Msg("asset unreadable")
			continue
		}
		assets[storeKey(path)] = raw
	}
	p.Store.Rebuild(NewDecoder(p.log), assets)

	p.gen.Add(1)
	p.log.Info().
		Int("scripts", len(scripts)).
		Int("assets", len(assets)).
		Uint64("generation", p.gen.Load()).
		Msg("project refreshed")
	return nil
}

// Generation returns the refresh counter consumers poll for changes.
func (p *Project) Generation() uint64 {
	return p.gen.Load()
}

// readScript reads one script file in the project encoding.
func (p *Project) readScript(path string) (string, error) {
	return ReadTextFile(path, p.Config.Encoding)
}

// storeKey derives the message store key from an asset path: the
// lowercased base name without its extension.
func storeKey(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// walkTree collects every file under root whose extension is in exts.
func walkTree(root string, exts []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range exts {
			if ext == want {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
