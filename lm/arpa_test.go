package lm

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGzipFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestWriteArpa_RoundTrip(t *testing.T) {
	m := loadTestModel(t)
	if err := m.RecountBackOffs(true, false); err != nil {
		t.Fatalf("RecountBackOffs error: %v", err)
	}
	out := filepath.Join(t.TempDir(), "out.arpa")
	if err := m.WriteArpa(out); err != nil {
		t.Fatalf("WriteArpa error: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read written model: %v", err)
	}
	if string(got) != testArpa {
		t.Errorf("written ARPA differs from loaded one\n got: %q\nwant: %q", got, testArpa)
	}
}

func TestWriteArpa_UnsetBackOff(t *testing.T) {
	m := loadTestModel(t)
	out := filepath.Join(t.TempDir(), "out.arpa")
	err := m.WriteArpa(out)
	if err == nil {
		t.Fatal("WriteArpa without recounted back-offs succeeded, want error")
	}
	if !strings.Contains(err.Error(), "recount") {
		t.Errorf("error = %v, want mention of recounting", err)
	}
}

func TestLoadArpa_Gzip(t *testing.T) {
	path := writeGzipFile(t, "model.arpa.gz", testArpa)
	m, err := LoadArpa(path, nil)
	if err != nil {
		t.Fatalf("LoadArpa error: %v", err)
	}
	if got := m.TotalNgrams(); got != 9 {
		t.Errorf("TotalNgrams = %d, want 9", got)
	}
}

func TestLoadArpa_Errors(t *testing.T) {
	tests := []struct {
		name string
		arpa string
	}{
		{"missing end", `
\data\
ngram 1=2

\1-grams:
-0.9	</s>
-0.5	a
`},
		{"header order mismatch", `
\data\
ngram 1=2
ngram 2=1

\1-grams:
-0.9	</s>
-0.5	a

\end\`},
		{"unexpected line", `
\data\
ngram 1=2

garbage

\1-grams:
-0.9	</s>
-0.5	a

\end\`},
		{"ngram before any section", `
\data\
ngram 1=2
-0.9	</s>

\end\`},
		{"bad header count", `
\data\
ngram 1=x

\1-grams:
-0.9	</s>

\end\`},
		{"empty model", `
\data\

\end\`},
		{"order gap", `
\data\
ngram 1=1
ngram 3=1

\1-grams:
-0.9	</s>

\3-grams:
-0.5	a b c

\end\`},
		{"bad body line", `
\data\
ngram 1=1

\1-grams:
-0.9	</s>	-0.1	extra

\end\`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestFile(t, "bad.arpa", tt.arpa)
			if _, err := LoadArpa(path, nil); err == nil {
				t.Error("LoadArpa succeeded, want error")
			}
		})
	}
}

func TestLoadArpa_ErrorHasPosition(t *testing.T) {
	path := writeTestFile(t, "bad.arpa", "\\data\\\nngram 1=1\n\ngarbage\n")
	_, err := LoadArpa(path, nil)
	if err == nil {
		t.Fatal("LoadArpa succeeded, want error")
	}
	var fe *ArpaFormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error %v is not an ArpaFormatError", err)
	}
	if fe.Path != path {
		t.Errorf("Path = %q, want %q", fe.Path, path)
	}
	if fe.Line != 4 {
		t.Errorf("Line = %d, want 4", fe.Line)
	}
	if fe.Text != "garbage" {
		t.Errorf("Text = %q, want garbage", fe.Text)
	}
}

func TestLoadArpa_PositiveLogProb(t *testing.T) {
	path := writeTestFile(t, "bad.arpa", "\\data\\\nngram 1=1\n\n\\1-grams:\n0.5\ta\n\n\\end\\")
	_, err := LoadArpa(path, nil)
	if !errors.Is(err, ErrPositiveLogProbability) {
		t.Errorf("error = %v, want ErrPositiveLogProbability", err)
	}
	var fe *ArpaFormatError
	if !errors.As(err, &fe) {
		t.Errorf("error %v is not an ArpaFormatError", err)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{-1, "-1.0"},
		{-0.5, "-0.5"},
		{-99, "-99.0"},
		{0, "0.0"},
		{-0.30103, "-0.30103"},
		{-1e-07, "-1e-07"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseNgramCount(t *testing.T) {
	count, err := parseNgramCount("1=42")
	if err != nil {
		t.Fatalf("parseNgramCount error: %v", err)
	}
	if count != 42 {
		t.Errorf("count = %d, want 42", count)
	}
	count, err = parseNgramCount("ngram 2=7")
	if err != nil {
		t.Fatalf("parseNgramCount error: %v", err)
	}
	if count != 7 {
		t.Errorf("count = %d, want 7", count)
	}
	if _, err := parseNgramCount("17"); err == nil {
		t.Error("parseNgramCount(17) succeeded, want error")
	}
	if _, err := parseNgramCount("1=x"); err == nil {
		t.Error("parseNgramCount(1=x) succeeded, want error")
	}
}
