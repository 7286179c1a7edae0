// Command lmedit loads an ARPA language model, applies word mappings
// and deletions, recounts the invalidated back-off weights and writes
// the edited model back.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phx-tp/phx-basics/internal/config"
	"github.com/phx-tp/phx-basics/internal/textio"
	"github.com/phx-tp/phx-basics/lm"
)

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// wordMapping renames one word across the model.
type wordMapping struct {
	Old, New string
}

// parseMapping parses an OLD=NEW flag value.
func parseMapping(s string) (wordMapping, error) {
	old, new, found := strings.Cut(s, "=")
	if !found || old == "" || new == "" {
		return wordMapping{}, fmt.Errorf("bad mapping %q, expected OLD=NEW", s)
	}
	return wordMapping{Old: old, New: new}, nil
}

// readMappings reads a mapping file: one "OLD NEW" pair per line, blank
// lines skipped. Vocabulary-wide renames run from such files.
func readMappings(path string) ([]wordMapping, error) {
	lines, err := textio.ReadLines(path)
	if err != nil {
		return nil, err
	}
	var mappings []wordMapping
	for i, line := range lines {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: bad mapping line %q, expected OLD NEW", path, i+1, line)
		}
		mappings = append(mappings, wordMapping{Old: fields[0], New: fields[1]})
	}
	return mappings, nil
}

func main() {
	inPath := flag.String("in", "", "path to input ARPA model, .gz accepted (required)")
	outPath := flag.String("out", "", "path to output ARPA model (required)")
	mapFile := flag.String("map-file", "", "file with one OLD NEW word mapping per line")
	configPath := flag.String("config", "", "path to YAML configuration")
	verbose := flag.Bool("v", false, "debug logging")
	var mapFlags stringList
	var deletions stringList
	flag.Var(&mapFlags, "map", "word mapping OLD=NEW, repeatable")
	flag.Var(&deletions, "delete", "space-separated word sequence to delete, repeatable")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lmedit -in MODEL -out MODEL [-map OLD=NEW]... [-map-file FILE] [-delete \"w1 w2\"]...")
		fmt.Fprintln(os.Stderr, "  Edits a language model in memory. Back-off weights invalidated")
		fmt.Fprintln(os.Stderr, "  by the edits are recounted before writing, so the output stays")
		fmt.Fprintln(os.Stderr, "  a consistent back-off model.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *inPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "error: -in and -out are required")
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	logger := newLogger(*verbose || cfg.Verbose)
	defer logger.Sync()

	var mappings []wordMapping
	for _, s := range mapFlags {
		mapping, err := parseMapping(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: bad -map value: %v\n", err)
			os.Exit(1)
		}
		mappings = append(mappings, mapping)
	}
	if *mapFile != "" {
		fromFile, err := readMappings(*mapFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading -map-file: %v\n", err)
			os.Exit(1)
		}
		mappings = append(mappings, fromFile...)
	}

	model, err := lm.LoadArpa(*inPath, logger)
	if err != nil {
		logger.Fatal("loading language model failed", zap.Error(err))
	}
	logger.Info("language model loaded",
		zap.String("path", *inPath),
		zap.Int("order", model.Order()),
		zap.Int("ngrams", model.TotalNgrams()))

	if len(mappings) > 0 {
		bar := pb.StartNew(len(mappings))
		for _, mapping := range mappings {
			// Recount once at the end instead of after every mapping.
			if err := model.MapWord(mapping.Old, mapping.New, false); err != nil {
				logger.Fatal("word mapping failed",
					zap.String("old", mapping.Old),
					zap.String("new", mapping.New),
					zap.Error(err))
			}
			bar.Increment()
		}
		bar.Finish()
	}

	for _, deletion := range deletions {
		sequence := strings.Fields(deletion)
		if len(sequence) == 0 {
			logger.Fatal("bad -delete value, expected a space-separated word sequence")
		}
		if err := model.DeleteNgram(sequence); err != nil {
			logger.Fatal("deletion failed", zap.String("ngram", deletion), zap.Error(err))
		}
	}

	if cfg.Edit.RecountBackOffs {
		if err := model.RecountBackOffs(true, cfg.Edit.CheckBackOffs); err != nil {
			logger.Fatal("recounting back-offs failed", zap.Error(err))
		}
	}
	if err := model.WriteArpa(*outPath); err != nil {
		logger.Fatal("writing language model failed", zap.Error(err))
	}
	logger.Info("language model written",
		zap.String("path", *outPath),
		zap.Int("ngrams", model.TotalNgrams()))
}

// newLogger builds a stderr logger, Debug level with verbose.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	return logger
}
