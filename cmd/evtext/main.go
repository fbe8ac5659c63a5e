package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"evtext"
)

var version = "0.1.0-dev"

var (
	configPath string
	verbose    bool
	jsonOut    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "evtext",
		Short: "Decode event text assets and trace message placeholders",
		Long: `Evtext decodes a game's event text asset dumps into per-label
messages and resolves the dynamic placeholders inside them by
searching the script corpus backward for the command that wrote
each value.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "evtext.ini", "Project config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the message store and script index, print a summary",
		RunE:  runRefresh,
	}
	refreshCmd.Flags().BoolVar(&jsonOut, "json", false, "Print machine-readable summary")

	decodeCmd := &cobra.Command{
		Use:   "decode <asset-file>",
		Short: "Decode one asset dump and print its messages",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecode,
	}
	decodeCmd.Flags().BoolVar(&jsonOut, "json", false, "Print machine-readable messages")

	messagesCmd := &cobra.Command{
		Use:   "messages <asset>",
		Short: "List decoded messages of one asset by store key",
		Args:  cobra.ExactArgs(1),
		RunE:  runMessages,
	}

	definitionCmd := &cobra.Command{
		Use:   "definition <label>",
		Short: "Show where a script label is defined",
		Args:  cobra.ExactArgs(1),
		RunE:  runDefinition,
	}

	callersCmd := &cobra.Command{
		Use:   "callers <label>",
		Short: "Show every call site targeting a label",
		Args:  cobra.ExactArgs(1),
		RunE:  runCallers,
	}

	traceCmd := &cobra.Command{
		Use:   "trace <file> <line> <tag-index>",
		Short: "Resolve a placeholder to its writer command",
		Args:  cobra.ExactArgs(3),
		RunE:  runTrace,
	}
	traceCmd.Flags().Int("group", 1, "Placeholder group id")

	speakerCmd := &cobra.Command{
		Use:   "speaker <id>",
		Short: "Resolve a speaker id through the name table asset",
		Args:  cobra.ExactArgs(1),
		RunE:  runSpeaker,
	}

	rootCmd.AddCommand(refreshCmd, decodeCmd, messagesCmd, definitionCmd, callersCmd, traceCmd, speakerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "evtext:", err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func openProject() (*evtext.Project, error) {
	log := newLogger()

	cfg, err := evtext.LoadConfig(configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		log.Debug().Str("path", configPath).Msg("no config file, using defaults")
		cfg = evtext.DefaultConfig()
	}

	return evtext.NewProject(cfg, log)
}

func loadedProject() (*evtext.Project, error) {
	p, err := openProject()
	if err != nil {
		return nil, err
	}
	if err := p.Refresh(); err != nil {
		return nil, err
	}
	return p, nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	started := time.Now()
	p, err := loadedProject()
	if err != nil {
		return err
	}

	summary := struct {
		Assets     int   `json:"assets"`
		Labels     int   `json:"labels"`
		Commands   int   `json:"commands"`
		DurationMS int64 `json:"duration_ms"`
	}{
		Assets:     len(p.Store.Files()),
		Labels:     len(p.Index.Labels()),
		Commands:   p.Schema.Len(),
		DurationMS: time.Since(started).Milliseconds(),
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(summary)
	}
	fmt.Printf("assets: %d\nlabels: %d\ncommands: %d\n", summary.Assets, summary.Labels, summary.Commands)
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}

	raw, err := evtext.ReadTextFile(args[0], p.Config.Encoding)
	if err != nil {
		return err
	}
	decoded, err := evtext.NewDecoder(newLogger()).Decode(raw, args[0])
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(decoded)
	}
	for _, key := range sortedKeys(decoded) {
		msg := decoded[key]
		fmt.Printf("%s: %s\n", msg.Label, msg.Text)
	}
	return nil
}

func runMessages(cmd *cobra.Command, args []string) error {
	p, err := loadedProject()
	if err != nil {
		return err
	}

	labels := p.Store.Labels(args[0])
	if len(labels) == 0 {
		return fmt.Errorf("no messages for %q", args[0])
	}
	for _, label := range labels {
		if msg, ok := p.Store.Message(args[0], label); ok {
			fmt.Printf("%s: %s\n", msg.Label, msg.Text)
		}
	}
	return nil
}

func runDefinition(cmd *cobra.Command, args []string) error {
	p, err := loadedProject()
	if err != nil {
		return err
	}

	def, ok := p.Index.Definition(args[0])
	if !ok {
		return fmt.Errorf("label %q not defined", args[0])
	}
	fmt.Printf("%s %s:%d\n", def.Name, def.File, def.Line)
	return nil
}

func runCallers(cmd *cobra.Command, args []string) error {
	p, err := loadedProject()
	if err != nil {
		return err
	}

	sites := p.Index.Callers(args[0])
	if len(sites) == 0 {
		fmt.Println("no callers")
		return nil
	}
	for _, cs := range sites {
		fmt.Printf("%s:%d -> %s\n", cs.File, cs.Line, cs.Target)
	}
	return nil
}

func runTrace(cmd *cobra.Command, args []string) error {
	p, err := loadedProject()
	if err != nil {
		return err
	}

	line, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("line: %w", err)
	}
	tag, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("tag-index: %w", err)
	}
	group, _ := cmd.Flags().GetInt("group")

	res := p.Tracer.Resolve(evtext.TraceRequest{
		File:     args[0],
		Line:     line,
		TagIndex: tag,
		Group:    group,
	})
	if !res.Resolved {
		fmt.Printf("unresolved (%d steps)\n", res.Steps)
		return nil
	}
	if res.Value != "" {
		fmt.Printf("%s = %s (%d steps)\n", res.Command, res.Value, res.Steps)
	} else {
		fmt.Printf("%s (%d steps)\n", res.Command, res.Steps)
	}
	return nil
}

func runSpeaker(cmd *cobra.Command, args []string) error {
	p, err := loadedProject()
	if err != nil {
		return err
	}

	name, ok := p.Store.SpeakerName(args[0])
	if !ok {
		return fmt.Errorf("speaker %q not found", args[0])
	}
	fmt.Println(name)
	return nil
}

func sortedKeys(m map[string]evtext.Message) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
