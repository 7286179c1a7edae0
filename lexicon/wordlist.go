package lexicon

import "github.com/phx-tp/phx-basics/internal/textio"

// WordList is a plain newline-separated vocabulary held as a set.
type WordList struct {
	words map[string]bool
}

// LoadWordList reads a word list, one word per line, skipping blank
// lines. The file may be gzip-compressed.
func LoadWordList(path string) (*WordList, error) {
	words, err := textio.ReadSet(path)
	if err != nil {
		return nil, err
	}
	return &WordList{words: words}, nil
}

// Words returns the word set. Implements the wordset contract of the
// lm package.
func (w *WordList) Words() (map[string]bool, error) {
	return w.words, nil
}

// Len returns the number of words.
func (w *WordList) Len() int {
	return len(w.words)
}
