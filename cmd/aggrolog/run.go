package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"aggrolog/engine/gamedata"
	"aggrolog/engine/logging"
	"aggrolog/engine/logging/sinks"
	"aggrolog/engine/sim"
)

var (
	runInput    string
	runOutput   string
	runVersion  string
	runLogSinks []string
	runLogJSON  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a fight document and write the augmented event stream",
	Long: `Run reads a fight document (actor/enemy directory plus the raw event
list), replays it through the threat engine for the fight's game version,
and writes the augmented stream as JSON.`,
	RunE: runFight,
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "-", "Fight document path, - for stdin")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "-", "Augmented stream path, - for stdout")
	runCmd.Flags().StringVar(&runVersion, "game-version", "", "Override the document's game version")
	runCmd.Flags().StringSliceVar(&runLogSinks, "log", nil, "Diagnostic sinks to enable (console, json)")
	runCmd.Flags().StringVar(&runLogJSON, "log-json-path", "", "Path for the json diagnostic sink")
}

func runFight(cmd *cobra.Command, args []string) error {
	doc, err := readFight(runInput)
	if err != nil {
		return err
	}

	// Precedence: flag, then the document, then the configured default.
	version := runVersion
	if version == "" {
		version = doc.Version
	}
	if version == "" {
		version = viper.GetString("version")
	}

	cfg, err := gamedata.Lookup(version)
	if err != nil {
		return err
	}

	pub, closeLogs, err := buildPublisher()
	if err != nil {
		return err
	}
	defer closeLogs()
	if pub != nil {
		pub = logging.WithFields(pub, map[string]any{"gameVersion": version})
	}

	transducer, err := sim.NewTransducer(cfg, doc.Actors, doc.Enemies, sim.Options{
		EncounterID: doc.EncounterID,
		Publisher:   pub,
	})
	if err != nil {
		return err
	}

	result := transducer.Run(cmd.Context(), doc.Events)
	return writeResult(runOutput, result)
}

func readFight(path string) (*sim.FightDocument, error) {
	if path == "-" {
		return sim.DecodeFight(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fight: %w", err)
	}
	defer f.Close()
	return sim.DecodeFight(f)
}

func writeResult(path string, result *sim.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp output: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}

// buildPublisher assembles the diagnostic router from the enabled sinks.
// With no sinks enabled it returns a nil publisher and a nop closer so the
// engine takes its no-diagnostics fast path.
func buildPublisher() (logging.Publisher, func(), error) {
	names := runLogSinks
	if len(names) == 0 {
		names = viper.GetStringSlice("log.sinks")
	}
	if len(names) == 0 {
		return nil, func() {}, nil
	}
	for _, name := range names {
		if name != "console" && name != "json" {
			return nil, nil, fmt.Errorf("unknown diagnostic sink %q", name)
		}
	}

	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = names

	var named []logging.NamedSink
	var closers []io.Closer
	if cfg.HasSink("console") {
		named = append(named, logging.NamedSink{
			Name: "console",
			Sink: sinks.NewConsoleSink(os.Stderr, cfg.Console),
		})
	}
	if cfg.HasSink("json") {
		path := runLogJSON
		if path == "" {
			path = viper.GetString("log.json_path")
		}
		if path == "" {
			return nil, nil, fmt.Errorf("json sink requires --log-json-path")
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closers = append(closers, f)
		named = append(named, logging.NamedSink{
			Name: "json",
			Sink: sinks.NewJSON(f, cfg.JSON.FlushInterval),
		})
	}

	router, err := logging.NewRouter(nil, cfg, named)
	if err != nil {
		return nil, nil, fmt.Errorf("start diagnostic router: %w", err)
	}
	closeAll := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = router.Close(ctx)
		stats := router.Stats()
		fmt.Fprintf(os.Stderr, "diagnostics: %d events published, %d dropped\n",
			stats.EventsTotal, stats.DroppedTotal)
		for _, c := range closers {
			_ = c.Close()
		}
	}
	return router, closeAll, nil
}
