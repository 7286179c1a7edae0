// Package lexicon holds pronunciation dictionaries and word lists for
// speech recognition vocabularies.
package lexicon

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/phx-tp/phx-basics/internal/textio"
)

// Check thresholds. Rarer graphemes or phonemes usually mean typos in
// the dictionary.
const (
	minGraphemeOccurrences = 3
	minPhonemeOccurrences  = 10
	minWords               = 500
)

// dictLineRe is the shape of a dictionary line: a word, a tab and
// space-separated phonemes, with no trailing whitespace.
var dictLineRe = regexp.MustCompile(`^\S+\t(\S+ )*\S+$`)

// Dictionary maps words to their sets of pronunciations; a
// pronunciation is a string of space-separated phonemes.
type Dictionary struct {
	pronunciations map[string]map[string]bool
	source         string
	log            *zap.Logger
}

// NewDictionary returns an empty dictionary. A nil logger disables
// diagnostics.
func NewDictionary(logger *zap.Logger) *Dictionary {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dictionary{pronunciations: make(map[string]map[string]bool), log: logger}
}

// Load reads a dictionary from a file.
func Load(path string, logger *zap.Logger) (*Dictionary, error) {
	d := NewDictionary(logger)
	if err := d.Read(path); err != nil {
		return nil, err
	}
	return d, nil
}

// Read loads entries from a dictionary file, collecting every
// formatting violation before failing. Tag entries are stripped. The
// file may be gzip-compressed.
func (d *Dictionary) Read(path string) error {
	lines, err := textio.ReadLines(path)
	if err != nil {
		return err
	}
	d.source = path
	var violations []error
	fail := func(violation error) {
		d.log.Error("bad dictionary line", zap.Error(violation))
		violations = append(violations, violation)
	}
	for i, line := range lines {
		lineNum := i + 1
		if !dictLineRe.MatchString(line) {
			fail(fmt.Errorf("%s:%d: line %q does not match \"word<TAB>phoneme phoneme ...\" with no trailing whitespace", path, lineNum, line))
			continue
		}
		word, pronunciation, _ := strings.Cut(line, "\t")
		if word != strings.ToLower(word) {
			fail(fmt.Errorf("%s:%d: word %q is not lowercase", path, lineNum, word))
			continue
		}
		if AllTags[word] {
			d.log.Debug("stripping tag entry", zap.String("word", word), zap.Int("line", lineNum))
			continue
		}
		if err := d.Add(word, pronunciation); err != nil {
			fail(fmt.Errorf("%s:%d: %v", path, lineNum, err))
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("loading dictionary %s failed with %d violations: %w", path, len(violations), errors.Join(violations...))
	}
	return nil
}

// Add records one pronunciation for a word. Adding an already known
// pronunciation logs a warning and keeps the entry once.
func (d *Dictionary) Add(word, pronunciation string) error {
	word = strings.TrimSpace(word)
	pronunciation = strings.TrimSpace(pronunciation)
	if strings.Contains(word, " ") {
		return fmt.Errorf("word %q contains a space", word)
	}
	if word == "" {
		return errors.New("can't add a pronunciation for an empty word")
	}
	if pronunciation == "" {
		return fmt.Errorf("can't add an empty pronunciation for word %q", word)
	}
	for _, phoneme := range strings.Split(pronunciation, " ") {
		if phoneme == "" {
			return fmt.Errorf("pronunciation %q of word %q contains an empty phoneme, separate phonemes with a single space", pronunciation, word)
		}
	}
	if d.pronunciations[word][pronunciation] {
		d.log.Warn("pronunciation already present, not added twice",
			zap.String("word", word),
			zap.String("pronunciation", pronunciation))
		return nil
	}
	if d.pronunciations[word] == nil {
		d.pronunciations[word] = make(map[string]bool)
	}
	d.pronunciations[word][pronunciation] = true
	return nil
}

// Merge copies every entry of other into d. No checks run; merge
// checked dictionaries, or check the result once everything is merged.
func (d *Dictionary) Merge(other *Dictionary) error {
	for word, pronunciations := range other.pronunciations {
		for pronunciation := range pronunciations {
			if err := d.Add(word, pronunciation); err != nil {
				return err
			}
		}
	}
	return nil
}

// Words returns the dictionary's words. Implements the wordset
// contract of the lm package.
func (d *Dictionary) Words() (map[string]bool, error) {
	words := make(map[string]bool, len(d.pronunciations))
	for word := range d.pronunciations {
		words[word] = true
	}
	return words, nil
}

// Pronunciations returns the sorted pronunciations of a word, nil when
// the dictionary does not hold it.
func (d *Dictionary) Pronunciations(word string) []string {
	set := d.pronunciations[word]
	if set == nil {
		return nil
	}
	pronunciations := make([]string, 0, len(set))
	for p := range set {
		pronunciations = append(pronunciations, p)
	}
	sort.Strings(pronunciations)
	return pronunciations
}

// WordCount returns the number of words.
func (d *Dictionary) WordCount() int {
	return len(d.pronunciations)
}

// Graphemes returns every grapheme the words use.
func (d *Dictionary) Graphemes() map[rune]bool {
	graphemes := make(map[rune]bool)
	for word := range d.pronunciations {
		for _, r := range word {
			graphemes[r] = true
		}
	}
	return graphemes
}

// GraphemeCounts returns how many times each grapheme occurs across
// all words.
func (d *Dictionary) GraphemeCounts() map[rune]int {
	counts := make(map[rune]int)
	for word := range d.pronunciations {
		for _, r := range word {
			counts[r]++
		}
	}
	return counts
}

// Phonemes returns every phoneme the pronunciations use.
func (d *Dictionary) Phonemes() map[string]bool {
	phonemes := make(map[string]bool)
	for _, pronunciations := range d.pronunciations {
		for pronunciation := range pronunciations {
			for _, phoneme := range strings.Fields(pronunciation) {
				phonemes[phoneme] = true
			}
		}
	}
	return phonemes
}

// PhonemeCounts returns how many times each phoneme occurs across all
// pronunciations.
func (d *Dictionary) PhonemeCounts() map[string]int {
	counts := make(map[string]int)
	for _, pronunciations := range d.pronunciations {
		for pronunciation := range pronunciations {
			for _, phoneme := range strings.Fields(pronunciation) {
				counts[phoneme]++
			}
		}
	}
	return counts
}

// PronunciationCounts returns the number of pronunciations per word,
// for finding words with unusually many variants.
func (d *Dictionary) PronunciationCounts() map[string]int {
	counts := make(map[string]int, len(d.pronunciations))
	for word, pronunciations := range d.pronunciations {
		counts[word] = len(pronunciations)
	}
	return counts
}

// FilterByWords drops every word not present in words.
func (d *Dictionary) FilterByWords(words map[string]bool) {
	for word := range d.pronunciations {
		if !words[word] {
			delete(d.pronunciations, word)
		}
	}
}

// IsSpelling reports whether a word is a spelling entry, a short
// letter name ending in an underscore like "a_" or "ch_".
func IsSpelling(word string) bool {
	if !strings.HasSuffix(word, "_") {
		return false
	}
	return utf8.RuneCountInString(word) <= 4
}

// MapSpelling strips the underscore suffix from spelling entries,
// merging their pronunciations with any plain entry of the same name.
func (d *Dictionary) MapSpelling() {
	mapped := make(map[string]map[string]bool, len(d.pronunciations))
	for word, pronunciations := range d.pronunciations {
		if IsSpelling(word) {
			word = strings.TrimRight(word, "_")
		}
		if mapped[word] == nil {
			mapped[word] = make(map[string]bool, len(pronunciations))
		}
		for p := range pronunciations {
			mapped[word][p] = true
		}
	}
	d.pronunciations = mapped
}

// Write stores the dictionary with words and pronunciations sorted.
// With addTags, annotation tag entries come first, each pronounced as
// its bare name.
func (d *Dictionary) Write(path string, addTags bool) error {
	var lines []string
	if addTags {
		tags := make([]string, 0, len(AllTags))
		for tag := range AllTags {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			lines = append(lines, tag+"\t"+strings.Trim(tag, "<>"))
		}
	}
	words := make([]string, 0, len(d.pronunciations))
	for word := range d.pronunciations {
		words = append(words, word)
	}
	sort.Strings(words)
	for _, word := range words {
		for _, pronunciation := range d.Pronunciations(word) {
			lines = append(lines, word+"\t"+pronunciation)
		}
	}
	return textio.WriteLines(path, lines)
}

// Check verifies the dictionary is plausible: enough words and no
// suspiciously rare graphemes or phonemes. The permissive flags
// downgrade the respective count violations to warnings.
func (d *Dictionary) Check(graphemePermissive, phonemePermissive bool) error {
	if d.WordCount() < minWords {
		d.log.Warn("dictionary has suspiciously few words",
			zap.Int("words", d.WordCount()),
			zap.Int("minimum", minWords))
	}
	var violations []error
	graphemeCounts := d.GraphemeCounts()
	for _, g := range sortedRunes(graphemeCounts) {
		count := graphemeCounts[g]
		if count >= minGraphemeOccurrences {
			continue
		}
		violation := fmt.Errorf("grapheme %q occurs only %d times, fewer than %d", g, count, minGraphemeOccurrences)
		if graphemePermissive {
			d.log.Warn("rare grapheme", zap.Error(violation))
			continue
		}
		d.log.Error("rare grapheme", zap.Error(violation))
		violations = append(violations, violation)
	}
	phonemeCounts := d.PhonemeCounts()
	for _, p := range sortedKeys(phonemeCounts) {
		count := phonemeCounts[p]
		if count >= minPhonemeOccurrences {
			continue
		}
		violation := fmt.Errorf("phoneme %q occurs only %d times, fewer than %d", p, count, minPhonemeOccurrences)
		if phonemePermissive {
			d.log.Warn("rare phoneme", zap.Error(violation))
			continue
		}
		d.log.Error("rare phoneme", zap.Error(violation))
		violations = append(violations, violation)
	}
	if len(violations) > 0 {
		name := d.source
		if name == "" {
			name = "in-memory dictionary"
		}
		return fmt.Errorf("check of %s failed with %d violations: %w", name, len(violations), errors.Join(violations...))
	}
	return nil
}

func sortedRunes(counts map[rune]int) []rune {
	runes := make([]rune, 0, len(counts))
	for r := range counts {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	return runes
}

func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
