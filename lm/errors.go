package lm

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingNgram reports that no ngram exists for a word sequence
	// even though the model holds ngrams of that order.
	ErrMissingNgram = errors.New("missing ngram")

	// ErrTooHighOrder reports that the model holds no ngrams of the
	// requested order at all.
	ErrTooHighOrder = errors.New("no ngrams of required order")

	// ErrPositiveLogProbability reports a base-10 log probability above
	// zero; a probability cannot exceed 1.
	ErrPositiveLogProbability = errors.New("positive log probability")
)

// ArpaFormatError reports a structural problem in an ARPA file.
type ArpaFormatError struct {
	Path string
	Line int    // 1-based, 0 when not tied to a line
	Text string // offending line, "" when not line-specific
	Err  error
}

func (e *ArpaFormatError) Error() string {
	switch {
	case e.Line > 0 && e.Text != "":
		return fmt.Sprintf("%s:%d: not a language model in ARPA format: %v in line %q", e.Path, e.Line, e.Err, e.Text)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: not a language model in ARPA format: %v", e.Path, e.Line, e.Err)
	default:
		return fmt.Sprintf("%s: not a language model in ARPA format: %v", e.Path, e.Err)
	}
}

func (e *ArpaFormatError) Unwrap() error { return e.Err }
