// Command lmstat prints queries over an ARPA language model using
// streaming scans only, so it works on models too big to load.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phx-tp/phx-basics/lm"
)

func main() {
	lmPath := flag.String("lm", "", "path to ARPA language model, .gz accepted (required)")
	words := flag.Bool("words", false, "print the vocabulary, one word per line")
	unigrams := flag.Bool("unigrams", false, "print unigram log probabilities")
	counts := flag.Bool("counts", false, "print the per-order ngram counts from the header")
	graphemes := flag.Bool("graphemes", false, "print the graphemes of the vocabulary")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lmstat -lm MODEL (-words | -unigrams | -counts | -graphemes)")
		fmt.Fprintln(os.Stderr, "  Streams the model file once and prints the requested query to")
		fmt.Fprintln(os.Stderr, "  stdout; the model is never loaded into memory.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *lmPath == "" {
		fmt.Fprintln(os.Stderr, "error: -lm is required")
		flag.Usage()
		os.Exit(1)
	}
	logger := newLogger(*verbose)
	defer logger.Sync()

	arpa, err := lm.NewArpa(*lmPath, logger)
	if err != nil {
		logger.Fatal("opening language model failed", zap.Error(err))
	}
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	switch {
	case *words:
		vocabulary, err := arpa.Words()
		if err != nil {
			logger.Fatal("reading vocabulary failed", zap.Error(err))
		}
		for _, word := range sortedKeys(vocabulary) {
			fmt.Fprintln(w, word)
		}
	case *unigrams:
		table, err := arpa.Unigrams()
		if err != nil {
			logger.Fatal("reading unigrams failed", zap.Error(err))
		}
		words := make([]string, 0, len(table))
		for word := range table {
			words = append(words, word)
		}
		sort.Strings(words)
		for _, word := range words {
			fmt.Fprintf(w, "%s\t%g\n", word, table[word])
		}
	case *counts:
		ngramCounts, err := arpa.NgramCounts()
		if err != nil {
			logger.Fatal("reading header counts failed", zap.Error(err))
		}
		total := 0
		for order, count := range ngramCounts {
			fmt.Fprintf(w, "ngram %d=%d\n", order+1, count)
			total += count
		}
		fmt.Fprintf(w, "total=%d\n", total)
	case *graphemes:
		set, err := arpa.Graphemes()
		if err != nil {
			logger.Fatal("reading graphemes failed", zap.Error(err))
		}
		runes := make([]rune, 0, len(set))
		for r := range set {
			runes = append(runes, r)
		}
		sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
		for _, r := range runes {
			fmt.Fprintln(w, string(r))
		}
	default:
		fmt.Fprintln(os.Stderr, "error: one of -words, -unigrams, -counts, -graphemes is required")
		flag.Usage()
		os.Exit(1)
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
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
