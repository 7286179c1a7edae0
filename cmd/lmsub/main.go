// Command lmsub applies a regex substitution to an ARPA language model
// line by line, without loading the model into memory.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phx-tp/phx-basics/lm"
)

func main() {
	inPath := flag.String("in", "", "path to input ARPA model, .gz accepted (required)")
	outPath := flag.String("out", "", "path to output ARPA model (required)")
	pattern := flag.String("pattern", "", "regular expression to replace (required)")
	replacement := flag.String("replace", "", "replacement text, $1-style group references allowed")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lmsub -in MODEL -out MODEL -pattern RE [-replace TEXT]")
		fmt.Fprintln(os.Stderr, "  Streams the model through the substitution one line at a time,")
		fmt.Fprintln(os.Stderr, "  so arbitrarily large models fit. Note that probabilities and")
		fmt.Fprintln(os.Stderr, "  back-offs are not recounted; use lmedit for consistent edits.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *inPath == "" || *outPath == "" || *pattern == "" {
		fmt.Fprintln(os.Stderr, "error: -in, -out and -pattern are required")
		flag.Usage()
		os.Exit(1)
	}
	logger := newLogger(*verbose)
	defer logger.Sync()

	re, err := regexp.Compile(*pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: bad -pattern: %v\n", err)
		os.Exit(1)
	}
	arpa, err := lm.NewArpa(*inPath, logger)
	if err != nil {
		logger.Fatal("opening language model failed", zap.Error(err))
	}
	if err := arpa.ReSub(*outPath, re, *replacement); err != nil {
		logger.Fatal("substitution failed", zap.Error(err))
	}
	logger.Info("substituted model written",
		zap.String("in", *inPath),
		zap.String("out", *outPath),
		zap.String("pattern", *pattern))
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
