package lexicon

import (
	"path/filepath"
	"testing"
)

func TestLoadWordList(t *testing.T) {
	path := writeTestFile(t, "words.txt", "a\n\nbet\n ah \n")
	wl, err := LoadWordList(path)
	if err != nil {
		t.Fatalf("LoadWordList error: %v", err)
	}
	if wl.Len() != 3 {
		t.Errorf("Len = %d, want 3", wl.Len())
	}
	words, err := wl.Words()
	if err != nil {
		t.Fatalf("Words error: %v", err)
	}
	for _, w := range []string{"a", "bet", "ah"} {
		if !words[w] {
			t.Errorf("missing word %q", w)
		}
	}
}

func TestLoadWordList_Missing(t *testing.T) {
	if _, err := LoadWordList(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("LoadWordList on a missing file succeeded, want error")
	}
}
