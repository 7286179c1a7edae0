// Command dictfilter restricts a pronunciation dictionary to a word
// list, checks the result for plausibility and writes it back sorted.
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
)

func main() {
	wordsPath := flag.String("words", "", "path to word list, one word per line (required)")
	configPath := flag.String("config", "", "path to YAML configuration")
	mapSpelling := flag.Bool("map-spelling", false, "merge spelling entries like \"a_\" into their plain words")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dictfilter -words LIST [options] <dict.txt> <out.txt>")
		fmt.Fprintln(os.Stderr, "  Keeps only dictionary entries whose word is in the word list,")
		fmt.Fprintln(os.Stderr, "  checks the filtered dictionary and writes it sorted.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *wordsPath == "" || flag.NArg() != 2 {
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

	dict, err := lexicon.Load(flag.Arg(0), logger)
	if err != nil {
		logger.Fatal("loading dictionary failed", zap.Error(err))
	}
	before := dict.WordCount()

	wordList, err := lexicon.LoadWordList(*wordsPath)
	if err != nil {
		logger.Fatal("loading word list failed", zap.Error(err))
	}
	words, _ := wordList.Words()

	if *mapSpelling {
		dict.MapSpelling()
	}
	dict.FilterByWords(words)
	logger.Info("dictionary filtered",
		zap.Int("words_before", before),
		zap.Int("words_after", dict.WordCount()),
		zap.Int("word_list", wordList.Len()))

	if err := dict.Check(cfg.Dict.GraphemePermissive, cfg.Dict.PhonemePermissive); err != nil {
		logger.Fatal("dictionary check failed", zap.Error(err))
	}
	if err := dict.Write(flag.Arg(1), cfg.Dict.WriteTags); err != nil {
		logger.Fatal("writing dictionary failed", zap.Error(err))
	}
	logger.Info("dictionary written", zap.String("path", flag.Arg(1)))
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
