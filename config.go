package evtext

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Config holds the per-project settings normally read from evtext.ini
// next to the script tree.
type Config struct {
	ScriptDir  string
	AssetDir   string
	ScriptExts []string
	AssetExts  []string

	SchemaPath  string
	SpeakerFile string
	Encoding    string

	LabelGrammar LabelGrammar
	StepLimit    int
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		ScriptDir:   "scripts",
		AssetDir:    "assets",
		ScriptExts:  []string{".evs"},
		AssetExts:   []string{".txt", ".asset"},
		SchemaPath:  "commands.json",
		SpeakerFile: "speakername",
		Encoding:    "utf-8",
		StepLimit:   DefaultStepLimit,
	}
}

// LoadConfig reads an evtext.ini project file. Missing keys keep their
// defaults; an unknown grammar or encoding name is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	paths := file.Section("paths")
	if v := paths.Key("scripts").String(); v != "" {
		cfg.ScriptDir = v
	}
	if v := paths.Key("assets").String(); v != "" {
		cfg.AssetDir = v
	}
	if v := paths.Key("schema").String(); v != "" {
		cfg.SchemaPath = v
	}

	scripts := file.Section("scripts")
	if v := normalizeExts(scripts.Key("extensions").Strings(",")); len(v) > 0 {
		cfg.ScriptExts = v
	}
	if v := scripts.Key("label_grammar").String(); v != "" {
		cfg.LabelGrammar, err = parseGrammar(v)
		if err != nil {
			return nil, err
		}
	}
	if v := scripts.Key("encoding").String(); v != "" {
		if _, err := encodingByName(v); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		cfg.Encoding = v
	}

	assets := file.Section("assets")
	if v := normalizeExts(assets.Key("extensions").Strings(",")); len(v) > 0 {
		cfg.AssetExts = v
	}
	if v := assets.Key("speaker_file").String(); v != "" {
		cfg.SpeakerFile = v
	}

	trace := file.Section("trace")
	if v, err := trace.Key("step_limit").Int(); err == nil && v >= 1 {
		cfg.StepLimit = v
	}

	return cfg, nil
}

func parseGrammar(name string) (LabelGrammar, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return GrammarAuto, nil
	case "at", "label":
		return GrammarAt, nil
	case "colon":
		return GrammarColon, nil
	}
	return GrammarAuto, fmt.Errorf("config: unknown label_grammar %q", name)
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, strings.ToLower(ext))
	}
	return out
}
