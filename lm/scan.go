package lm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/phx-tp/phx-basics/internal/textio"
)

// Suffix is the conventional file extension for ARPA language models.
const Suffix = ".arpa"

// Words with a special role in language models.
const (
	StartOfSentence = "<s>"
	EndOfSentence   = "</s>"
	UnknownWord     = "<unk>"
	Hesitation      = "<hes>"
	Silence         = "<sil>"
)

var (
	// Tags are the structural words a model carries on top of its
	// vocabulary.
	Tags = map[string]bool{StartOfSentence: true, EndOfSentence: true, UnknownWord: true}
	// OptionalTags mark non-speech events; models may or may not
	// include them.
	OptionalTags = map[string]bool{Hesitation: true, Silence: true}
)

// Arpa scans an ARPA language model file without loading it into
// memory, which matters for models too big for LoadArpa. The file may
// be gzip-compressed.
type Arpa struct {
	path string
	log  *zap.Logger
}

// NewArpa verifies that path names a readable ARPA file. The \data\
// header has to appear in the first 5 lines.
func NewArpa(path string, logger *zap.Logger) (*Arpa, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := textio.CheckFile(path); err != nil {
		return nil, err
	}
	f, err := textio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := textio.NewScanner(f)
	for i := 0; i < 5 && scanner.Scan(); i++ {
		if strings.HasPrefix(scanner.Text(), dataSection) {
			return &Arpa{path: path, log: logger}, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, &ArpaFormatError{Path: path, Err: fmt.Errorf("no %s header in the first 5 lines", dataSection)}
}

// Path returns the scanned file's path.
func (a *Arpa) Path() string {
	return a.path
}

// scanUnigramSection calls visit for every nonblank line of the
// \1-grams: section, stopping at the blank line that ends it. The
// marker line itself is not visited. A visit error aborts the scan.
func (a *Arpa) scanUnigramSection(visit func(lineNum int, line string, fields []string) error) error {
	f, err := textio.Open(a.path)
	if err != nil {
		return err
	}
	defer f.Close()
	scanner := textio.NewScanner(f)
	inSection := false
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			if inSection {
				break
			}
			continue
		}
		if inSection {
			if err := visit(lineNum, line, fields); err != nil {
				return err
			}
		}
		if fields[0] == unigramSection {
			inSection = true
		}
	}
	return scanner.Err()
}

// Words returns the model's vocabulary, tags included.
func (a *Arpa) Words() (map[string]bool, error) {
	words := make(map[string]bool)
	err := a.scanUnigramSection(func(lineNum int, line string, fields []string) error {
		if len(fields) < 2 {
			return &ArpaFormatError{Path: a.path, Line: lineNum, Text: line, Err: errors.New("can't read word from unigram line")}
		}
		words[fields[1]] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return words, nil
}

// Unigrams returns every unigram's log probability keyed by word.
func (a *Arpa) Unigrams() (map[string]float64, error) {
	unigrams := make(map[string]float64)
	err := a.scanUnigramSection(func(lineNum int, line string, fields []string) error {
		if len(fields) < 2 {
			return &ArpaFormatError{Path: a.path, Line: lineNum, Text: line, Err: errors.New("can't read word from unigram line")}
		}
		logProb, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return &ArpaFormatError{Path: a.path, Line: lineNum, Text: line, Err: fmt.Errorf("can't read log probability: %v", err)}
		}
		unigrams[fields[1]] = logProb
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unigrams, nil
}

// NgramCounts returns the per-order ngram counts declared in the
// \data\ header, in file order.
func (a *Arpa) NgramCounts() ([]int, error) {
	f, err := textio.Open(a.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := textio.NewScanner(f)
	var counts []int
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.HasPrefix(line, "ngram ") {
			count, err := parseNgramCount(strings.TrimSpace(line))
			if err != nil {
				return nil, &ArpaFormatError{Path: a.path, Line: lineNum, Text: line, Err: err}
			}
			counts = append(counts, count)
		}
		if strings.TrimSpace(line) == unigramSection {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// SumNgrams returns the total number of ngrams the header declares.
func (a *Arpa) SumNgrams() (int, error) {
	counts, err := a.NgramCounts()
	if err != nil {
		return 0, err
	}
	sum := 0
	for _, count := range counts {
		sum += count
	}
	return sum, nil
}

// UnigramsCount returns the unigram count the header declares. The
// "ngram 1=" line has to appear in the first 10 lines.
func (a *Arpa) UnigramsCount() (int, error) {
	f, err := textio.Open(a.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	scanner := textio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() && lineNum < 10 {
		lineNum++
		line := scanner.Text()
		if strings.HasPrefix(line, "ngram 1=") {
			count, err := parseNgramCount(strings.TrimSpace(line))
			if err != nil {
				return 0, &ArpaFormatError{Path: a.path, Line: lineNum, Text: line, Err: err}
			}
			return count, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, &ArpaFormatError{Path: a.path, Err: errors.New("no unigram count in the first 10 lines")}
}

// Check verifies that every vocabulary word is lowercase and present
// in ws. Tags are always allowed; with allowOptionalTags also the
// optional ones. All violations are logged and collected before the
// check fails.
func (a *Arpa) Check(ws Wordset, allowOptionalTags bool) error {
	words, err := ws.Words()
	if err != nil {
		return err
	}
	allowed := make(map[string]bool, len(words)+len(Tags)+len(OptionalTags))
	for w := range words {
		allowed[w] = true
	}
	for t := range Tags {
		allowed[t] = true
	}
	if allowOptionalTags {
		for t := range OptionalTags {
			allowed[t] = true
		}
	}
	var violations []error
	err = a.scanUnigramSection(func(lineNum int, line string, fields []string) error {
		var violation error
		switch {
		case len(fields) < 2:
			violation = fmt.Errorf("%s:%d: can't read word from line %q", a.path, lineNum, line)
		case fields[1] != strings.ToLower(fields[1]):
			violation = fmt.Errorf("%s:%d: word %q is not lowercase", a.path, lineNum, fields[1])
		case !allowed[fields[1]]:
			violation = fmt.Errorf("%s:%d: word %q is not present in the supplied wordset", a.path, lineNum, fields[1])
		default:
			return nil
		}
		a.log.Error("ARPA check violation", zap.Error(violation))
		violations = append(violations, violation)
		return nil
	})
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		return fmt.Errorf("ARPA check failed with %d violations: %w", len(violations), errors.Join(violations...))
	}
	return nil
}

// Graphemes returns every grapheme used by the vocabulary, tags
// excluded.
func (a *Arpa) Graphemes() (map[rune]bool, error) {
	words, err := a.Words()
	if err != nil {
		return nil, err
	}
	graphemes := make(map[rune]bool)
	for word := range words {
		if Tags[word] || OptionalTags[word] {
			continue
		}
		for _, r := range word {
			graphemes[r] = true
		}
	}
	return graphemes, nil
}

// ReSub streams the file through re, replacing every match with
// replacement, and writes the result to outputPath. Lines are
// processed one at a time, so arbitrarily large models fit.
func (a *Arpa) ReSub(outputPath string, re *regexp.Regexp, replacement string) error {
	in, err := textio.Open(a.path)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := textio.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	r := bufio.NewReader(in)
	w := bufio.NewWriter(out)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if _, werr := w.WriteString(re.ReplaceAllString(line, replacement)); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return out.Close()
}
