package lexicon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDict = `<sil>	sil
a	ej
ah	a h
bet	b e t
bet	b eh t
`

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDictionaryRead(t *testing.T) {
	d, err := Load(writeTestFile(t, "dict.txt", testDict), nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	// The <sil> tag entry is stripped on read.
	if got := d.WordCount(); got != 3 {
		t.Errorf("WordCount = %d, want 3", got)
	}
	words, err := d.Words()
	if err != nil {
		t.Fatalf("Words error: %v", err)
	}
	if words["<sil>"] {
		t.Error("tag entry <sil> survived reading")
	}

	prons := d.Pronunciations("bet")
	if len(prons) != 2 || prons[0] != "b e t" || prons[1] != "b eh t" {
		t.Errorf("Pronunciations(bet) = %v, want [b e t, b eh t]", prons)
	}
	if prons := d.Pronunciations("missing"); prons != nil {
		t.Errorf("Pronunciations(missing) = %v, want nil", prons)
	}
}

func TestDictionaryRead_Violations(t *testing.T) {
	const bad = `Word	w
a
b c	x
ok	o k
`
	d := NewDictionary(nil)
	err := d.Read(writeTestFile(t, "bad.txt", bad))
	if err == nil {
		t.Fatal("Read succeeded, want violations")
	}
	if !strings.Contains(err.Error(), "3 violations") {
		t.Errorf("error = %v, want 3 violations", err)
	}
	// Valid entries are kept even when the load fails.
	if got := d.WordCount(); got != 1 {
		t.Errorf("WordCount = %d, want 1", got)
	}
}

func TestDictionaryAdd(t *testing.T) {
	d := NewDictionary(nil)
	if err := d.Add("", "p"); err == nil {
		t.Error("Add with empty word succeeded, want error")
	}
	if err := d.Add("a b", "p"); err == nil {
		t.Error("Add with space in word succeeded, want error")
	}
	if err := d.Add("a", ""); err == nil {
		t.Error("Add with empty pronunciation succeeded, want error")
	}
	if err := d.Add("a", "p  q"); err == nil {
		t.Error("Add with double space in pronunciation succeeded, want error")
	}

	if err := d.Add("a", "p q"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	// A duplicate is kept once, without error.
	if err := d.Add("a", "p q"); err != nil {
		t.Fatalf("duplicate Add error: %v", err)
	}
	if prons := d.Pronunciations("a"); len(prons) != 1 {
		t.Errorf("Pronunciations(a) = %v, want one entry", prons)
	}
}

func TestDictionaryMerge(t *testing.T) {
	d, err := Load(writeTestFile(t, "dict.txt", testDict), nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	other := NewDictionary(nil)
	if err := other.Add("bet", "b e t"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := other.Add("new", "n u"); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	if err := d.Merge(other); err != nil {
		t.Fatalf("Merge error: %v", err)
	}
	if got := d.WordCount(); got != 4 {
		t.Errorf("WordCount = %d, want 4", got)
	}
	if prons := d.Pronunciations("bet"); len(prons) != 2 {
		t.Errorf("Pronunciations(bet) = %v, want still two entries", prons)
	}
}

func TestDictionaryFilterByWords(t *testing.T) {
	d, err := Load(writeTestFile(t, "dict.txt", testDict), nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	d.FilterByWords(map[string]bool{"a": true, "bet": true, "unrelated": true})
	if got := d.WordCount(); got != 2 {
		t.Errorf("WordCount = %d, want 2", got)
	}
	if prons := d.Pronunciations("ah"); prons != nil {
		t.Errorf("Pronunciations(ah) = %v, want filtered out", prons)
	}
}

func TestDictionaryCounts(t *testing.T) {
	d := NewDictionary(nil)
	for _, e := range []struct{ word, pron string }{
		{"ab", "x y"},
		{"b", "z"},
		{"b", "w"},
	} {
		if err := d.Add(e.word, e.pron); err != nil {
			t.Fatalf("Add(%s) error: %v", e.word, err)
		}
	}

	graphemes := d.Graphemes()
	if len(graphemes) != 2 || !graphemes['a'] || !graphemes['b'] {
		t.Errorf("Graphemes = %v, want {a b}", graphemes)
	}
	graphemeCounts := d.GraphemeCounts()
	if graphemeCounts['a'] != 1 || graphemeCounts['b'] != 2 {
		t.Errorf("GraphemeCounts = %v, want a:1 b:2", graphemeCounts)
	}
	phonemes := d.Phonemes()
	for _, p := range []string{"x", "y", "z", "w"} {
		if !phonemes[p] {
			t.Errorf("missing phoneme %q", p)
		}
	}
	phonemeCounts := d.PhonemeCounts()
	if phonemeCounts["x"] != 1 {
		t.Errorf("PhonemeCounts[x] = %d, want 1", phonemeCounts["x"])
	}
	pronCounts := d.PronunciationCounts()
	if pronCounts["ab"] != 1 || pronCounts["b"] != 2 {
		t.Errorf("PronunciationCounts = %v, want ab:1 b:2", pronCounts)
	}
}

func TestDictionaryWrite(t *testing.T) {
	d := NewDictionary(nil)
	if err := d.Add("bet", "b e t"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := d.Add("ant", "a n t"); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "dict.txt")
	if err := d.Write(path, true); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written dictionary: %v", err)
	}
	want := "<hes>\thes\n<sil>\tsil\n<unk>\tunk\nant\ta n t\nbet\tb e t\n"
	if string(got) != want {
		t.Errorf("written dictionary = %q, want %q", got, want)
	}

	// Reading it back strips the tag entries again.
	loaded, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.WordCount() != 2 {
		t.Errorf("WordCount after round trip = %d, want 2", loaded.WordCount())
	}
}

func TestDictionaryCheck(t *testing.T) {
	d := NewDictionary(nil)
	if err := d.Add("aaa", "p p p p p p p p p p"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	// a occurs 3 times, p 10 times, both exactly at their thresholds.
	if err := d.Check(false, false); err != nil {
		t.Errorf("Check error: %v, want pass", err)
	}

	if err := d.Add("ab", "q"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	// b occurs once and q once, below both thresholds.
	err := d.Check(false, false)
	if err == nil {
		t.Fatal("Check succeeded, want rare grapheme and phoneme violations")
	}
	if !strings.Contains(err.Error(), "2 violations") {
		t.Errorf("error = %v, want 2 violations", err)
	}

	// Permissive mode downgrades everything to warnings.
	if err := d.Check(true, true); err != nil {
		t.Errorf("permissive Check error: %v, want pass", err)
	}
}

func TestIsSpelling(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"a_", true},
		{"ch_", true},
		{"abc_", true},
		{"abcd_", false},
		{"ab", false},
		{"_", true},
	}
	for _, tt := range tests {
		if got := IsSpelling(tt.word); got != tt.want {
			t.Errorf("IsSpelling(%q) = %v, want %v", tt.word, got, tt.want)
		}
	}
}

func TestMapSpelling(t *testing.T) {
	d := NewDictionary(nil)
	for _, e := range []struct{ word, pron string }{
		{"a_", "ej"},
		{"a", "ah"},
		{"ch_", "c h"},
		{"word", "w o r d"},
	} {
		if err := d.Add(e.word, e.pron); err != nil {
			t.Fatalf("Add(%s) error: %v", e.word, err)
		}
	}

	d.MapSpelling()
	if got := d.WordCount(); got != 3 {
		t.Errorf("WordCount = %d, want 3", got)
	}
	prons := d.Pronunciations("a")
	if len(prons) != 2 || prons[0] != "ah" || prons[1] != "ej" {
		t.Errorf("Pronunciations(a) = %v, want [ah ej]", prons)
	}
	if prons := d.Pronunciations("ch"); len(prons) != 1 || prons[0] != "c h" {
		t.Errorf("Pronunciations(ch) = %v, want [c h]", prons)
	}
	if prons := d.Pronunciations("ch_"); prons != nil {
		t.Errorf("Pronunciations(ch_) = %v, want nil after mapping", prons)
	}
}
