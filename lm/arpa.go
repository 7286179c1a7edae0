package lm

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/phx-tp/phx-basics/internal/textio"
)

const (
	dataSection    = `\data\`
	endSection     = `\end\`
	unigramSection = `\1-grams:`
)

// gramSectionRe matches order section markers, e.g. \1-grams:
var gramSectionRe = regexp.MustCompile(`^\\[0-9]+-grams:$`)

// LoadArpa reads a language model from an ARPA file, which may be
// gzip-compressed. Ngrams with the same (history, word) key are
// accumulated. The header's ngram counts have to match the number of
// loaded order levels and the unigram level must not be empty.
func LoadArpa(path string, logger *zap.Logger) (*LanguageModel, error) {
	m := NewLanguageModel(logger)
	f, err := textio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var headerCounts []int
	sawEnd := false
	inSection := false
	lineNum := 0
	scanner := textio.NewScanner(f)
scan:
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		fields := strings.Fields(line)
		switch {
		case len(fields) == 0:
			continue
		case len(fields) == 1:
			switch {
			case fields[0] == dataSection:
			case fields[0] == endSection:
				sawEnd = true
				break scan
			case gramSectionRe.MatchString(fields[0]):
				inSection = true
			default:
				return nil, &ArpaFormatError{Path: path, Line: lineNum, Text: line, Err: errors.New("unexpected line")}
			}
		case strings.HasPrefix(fields[0], "ngram"):
			count, err := parseNgramCount(fields[1])
			if err != nil {
				return nil, &ArpaFormatError{Path: path, Line: lineNum, Text: line, Err: err}
			}
			headerCounts = append(headerCounts, count)
		default:
			if !inSection {
				return nil, &ArpaFormatError{Path: path, Line: lineNum, Text: line, Err: errors.New("ngram entry before any order section")}
			}
			ng, err := ParseArpaLine(line)
			if err != nil {
				return nil, &ArpaFormatError{Path: path, Line: lineNum, Text: line, Err: err}
			}
			if ng.BackOff.State == BackOffWeight && ng.BackOff.LogWeight > 0 {
				m.log.Warn("positive log back-off",
					zap.Stringer("ngram", ng),
					zap.Float64("log_back_off", ng.BackOff.LogWeight),
					zap.Int("line", lineNum))
			}
			if err := m.addNgram(ng); err != nil {
				return nil, &ArpaFormatError{Path: path, Line: lineNum, Text: line, Err: err}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !sawEnd {
		return nil, &ArpaFormatError{Path: path, Err: errors.New(`missing \end\ terminator`)}
	}
	if m.Order() != len(headerCounts) {
		return nil, &ArpaFormatError{Path: path, Err: fmt.Errorf("loaded model order (%d) differs from the order the header declares (%d)", m.Order(), len(headerCounts))}
	}
	if m.Order() == 0 || len(m.levels[0]) == 0 {
		return nil, &ArpaFormatError{Path: path, Err: errors.New("no unigrams after load")}
	}
	return m, nil
}

// parseNgramCount extracts N from an "ngram k=N" count header.
func parseNgramCount(s string) (int, error) {
	_, after, found := strings.Cut(s, "=")
	if !found {
		return 0, fmt.Errorf("no '=' in ngram count header %q", s)
	}
	count, err := strconv.Atoi(strings.TrimSpace(after))
	if err != nil {
		return 0, fmt.Errorf("bad ngram count in header %q", s)
	}
	return count, nil
}

// WriteArpa writes the model in ARPA format, creating parent
// directories as needed. Every ngram needs a computed or explicitly
// absent back-off; recount back-offs before writing an edited model.
// Within an order, lines are sorted by history and then by word, so
// equal models serialize to identical files.
func (m *LanguageModel) WriteArpa(path string) error {
	f, err := textio.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "\n%s\n", dataSection)
	for order := 1; order <= m.Order(); order++ {
		fmt.Fprintf(w, "ngram %d=%d\n", order, m.NgramCount(order))
	}

	type historyGroup struct {
		key   string
		words []string
	}
	for historyOrder, level := range m.levels {
		fmt.Fprintf(w, "\n\\%d-grams:\n", historyOrder+1)
		groups := make([]historyGroup, 0, len(level))
		for key := range level {
			groups = append(groups, historyGroup{key: key, words: strings.Fields(key)})
		}
		sort.Slice(groups, func(i, j int) bool {
			return slices.Compare(groups[i].words, groups[j].words) < 0
		})
		for _, group := range groups {
			entries := level[group.key]
			words := make([]string, 0, len(entries))
			for word := range entries {
				words = append(words, word)
			}
			sort.Strings(words)
			for _, word := range words {
				ng := entries[word]
				switch ng.BackOff.State {
				case BackOffUnset:
					return fmt.Errorf("back-off for ngram %q is unset, recount back-offs before writing", ng)
				case BackOffNone:
					fmt.Fprintf(w, "%s\t%s\n", formatFloat(ng.LogProb), ng)
				default:
					fmt.Fprintf(w, "%s\t%s\t%s\n", formatFloat(ng.LogProb), ng, formatFloat(ng.BackOff.LogWeight))
				}
			}
		}
	}
	fmt.Fprintf(w, "\n%s", endSection)

	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// formatFloat renders a log value as the shortest decimal that parses
// back to the same float, keeping a ".0" suffix on integral values so
// probability columns stay recognizable as floats.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
