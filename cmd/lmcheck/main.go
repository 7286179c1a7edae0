// Command lmcheck verifies that an ARPA language model's vocabulary is
// covered by a reference wordset: a word list, a pronunciation
// dictionary, or another model.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phx-tp/phx-basics/internal/config"
	"github.com/phx-tp/phx-basics/lexicon"
	"github.com/phx-tp/phx-basics/lm"
)

func main() {
	lmPath := flag.String("lm", "", "path to ARPA language model, .gz accepted (required)")
	wordsPath := flag.String("words", "", "path to word list, one word per line")
	dictPath := flag.String("dict", "", "path to pronunciation dictionary")
	refPath := flag.String("ref-lm", "", "path to reference ARPA model")
	configPath := flag.String("config", "", "path to YAML configuration")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lmcheck -lm MODEL (-words LIST | -dict DICT | -ref-lm MODEL)")
		fmt.Fprintln(os.Stderr, "  Checks that every word of the model's vocabulary is lowercase")
		fmt.Fprintln(os.Stderr, "  and present in the reference wordset. All violations are")
		fmt.Fprintln(os.Stderr, "  reported, not just the first one.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *lmPath == "" {
		fmt.Fprintln(os.Stderr, "error: -lm is required")
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

	var ws lm.Wordset
	var err error
	switch {
	case *wordsPath != "":
		ws, err = lexicon.LoadWordList(*wordsPath)
	case *dictPath != "":
		ws, err = lexicon.Load(*dictPath, logger)
	case *refPath != "":
		ws, err = lm.NewArpa(*refPath, logger)
	default:
		fmt.Fprintln(os.Stderr, "error: one of -words, -dict, -ref-lm is required")
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		logger.Fatal("loading reference wordset failed", zap.Error(err))
	}

	arpa, err := lm.NewArpa(*lmPath, logger)
	if err != nil {
		logger.Fatal("opening language model failed", zap.Error(err))
	}
	if err := arpa.Check(ws, cfg.Check.AllowOptionalTags); err != nil {
		logger.Fatal("vocabulary check failed", zap.Error(err))
	}
	logger.Info("vocabulary check passed", zap.String("lm", *lmPath))
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
