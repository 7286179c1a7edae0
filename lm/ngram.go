// Package lm holds an n-gram back-off language model in memory and
// reads and writes it in the ARPA text format.
package lm

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/phx-tp/phx-basics/internal/mathutil"
)

// BackOffState distinguishes a back-off weight that has not been
// computed yet from one that is intentionally absent.
type BackOffState uint8

const (
	// BackOffUnset marks a back-off that must be recomputed before the
	// model can be written.
	BackOffUnset BackOffState = iota
	// BackOffNone marks an ngram that carries no back-off weight: the
	// model's highest order, an end-of-sentence word, or a context no
	// ngram extends. Serialized as an absent column.
	BackOffNone
	// BackOffWeight marks a computed base-10 log back-off weight.
	BackOffWeight
)

// BackOff is the tri-state back-off weight of an Ngram. The zero value
// is BackOffUnset.
type BackOff struct {
	State     BackOffState
	LogWeight float64
}

// NewBackOff builds a back-off weight from a base-10 log value. NaN
// means no back-off; values below the clamping threshold collapse to
// the smallest representable log probability. Positive values are kept
// as-is, legacy models carry them.
func NewBackOff(logWeight float64) BackOff {
	switch {
	case math.IsNaN(logWeight):
		return BackOff{State: BackOffNone}
	case logWeight < mathutil.ThresholdLogProb:
		return BackOff{State: BackOffWeight, LogWeight: mathutil.SmallestLogProb}
	default:
		return BackOff{State: BackOffWeight, LogWeight: logWeight}
	}
}

// NoBackOff returns the sentinel for ngrams that have no back-off
// weight at all.
func NoBackOff() BackOff {
	return BackOff{State: BackOffNone}
}

// Ngram is a single back-off language-model entry: the probability of a
// word given its history of preceding words, an optional back-off
// weight and an optional observation count. Identity for lookup and
// accumulation is the (history, word) pair alone.
type Ngram struct {
	Word     string
	History  []string
	LogProb  float64
	BackOff  BackOff
	Count    int64
	HasCount bool
}

// ParseArpaLine parses one ARPA body line: a base-10 log probability, a
// space-separated word sequence and an optional back-off weight in two
// or three tab-separated columns. The last word of the sequence is the
// predicted word, the preceding ones its history.
func ParseArpaLine(line string) (*Ngram, error) {
	columns := strings.Split(strings.TrimRight(line, " \t\r\n"), "\t")
	if len(columns) != 2 && len(columns) != 3 {
		return nil, fmt.Errorf("ARPA lines have to be separated by tabulator and have 2 or 3 columns, got %d", len(columns))
	}
	lp, err := strconv.ParseFloat(columns[0], 64)
	if err != nil {
		return nil, fmt.Errorf("log probability column %q is not a float", columns[0])
	}
	ng := &Ngram{}
	if err := ng.SetLogProb(lp); err != nil {
		return nil, err
	}
	if len(columns) == 3 {
		bo, err := strconv.ParseFloat(columns[2], 64)
		if err != nil {
			return nil, fmt.Errorf("back-off column %q is not a float", columns[2])
		}
		ng.BackOff = NewBackOff(bo)
	}
	words := strings.Fields(columns[1])
	if len(words) == 0 {
		return nil, errors.New("empty word sequence column")
	}
	ng.Word = words[len(words)-1]
	ng.History = words[:len(words)-1]
	return ng, nil
}

// HistoryOrder returns the number of history words.
func (n *Ngram) HistoryOrder() int { return len(n.History) }

// Order returns the ngram's order, history length plus one.
func (n *Ngram) Order() int { return len(n.History) + 1 }

// WordSequence returns history followed by the predicted word.
func (n *Ngram) WordSequence() []string {
	seq := make([]string, 0, len(n.History)+1)
	seq = append(seq, n.History...)
	return append(seq, n.Word)
}

// Prob returns the linear probability of the ngram.
func (n *Ngram) Prob() float64 {
	return mathutil.Log10ToProb(n.LogProb)
}

// SetLogProb sets the base-10 log probability. Values below the
// clamping threshold collapse to the smallest representable log
// probability; positive values are rejected.
func (n *Ngram) SetLogProb(v float64) error {
	if v > 0 {
		return fmt.Errorf("can't set %g as log probability: %w", v, ErrPositiveLogProbability)
	}
	n.LogProb = mathutil.ClampLog10(v)
	return nil
}

// SetCount records an observation count for the ngram.
func (n *Ngram) SetCount(c int64) {
	n.Count = c
	n.HasCount = true
}

// Accumulate merges another observation of the same (history, word)
// pair into this one. Probabilities are summed in linear space and
// reconverted to log; counts are summed only when both sides carry one;
// the back-off is reset to unset, it cannot be accumulated and has to
// be recounted.
func (n *Ngram) Accumulate(other *Ngram) error {
	if n.Word != other.Word || !slices.Equal(n.History, other.History) {
		return fmt.Errorf("can't accumulate ngram %q into %q: keys differ", other, n)
	}
	if n.HasCount && other.HasCount {
		n.Count += other.Count
	} else {
		n.Count = 0
		n.HasCount = false
	}
	if err := n.SetLogProb(mathutil.ProbToLog10(n.Prob() + other.Prob())); err != nil {
		return err
	}
	n.BackOff = BackOff{}
	return nil
}

// MapWord rewrites old to new wherever it appears in the history or as
// the predicted word and reports whether anything changed. A change
// invalidates the back-off weight, the record now belongs to a
// different context.
func (n *Ngram) MapWord(old, new string) bool {
	changed := false
	for i, h := range n.History {
		if h == old {
			n.History[i] = new
			changed = true
		}
	}
	if n.Word == old {
		n.Word = new
		changed = true
	}
	if changed {
		n.BackOff = BackOff{}
	}
	return changed
}

// String returns the space-joined word sequence, which is also the
// ARPA body rendering of the ngram's words.
func (n *Ngram) String() string {
	if len(n.History) == 0 {
		return n.Word
	}
	return strings.Join(n.History, " ") + " " + n.Word
}

func (n *Ngram) historyKey() string {
	return strings.Join(n.History, " ")
}
