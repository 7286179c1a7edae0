package lm

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/phx-tp/phx-basics/internal/mathutil"
)

// backOffRecountTolerance is the absolute tolerance used when checking
// recounted back-off weights against the stored ones.
const backOffRecountTolerance = 1e-7

// LanguageModel is an in-memory back-off n-gram model: a three-level
// index from history order to space-joined history to predicted word.
// It is exclusively owned by its caller; no operation is safe for
// concurrent mutation.
type LanguageModel struct {
	// levels[historyOrder][historyKey][word]
	levels []map[string]map[string]*Ngram
	log    *zap.Logger
}

// NewLanguageModel returns an empty model. A nil logger disables
// diagnostics.
func NewLanguageModel(logger *zap.Logger) *LanguageModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LanguageModel{log: logger}
}

// Order returns the highest n-gram order present in the model.
func (m *LanguageModel) Order() int { return len(m.levels) }

// Ngrams returns all ngrams, lowest order first. The slice is a
// snapshot; the records it points to are the live ones.
func (m *LanguageModel) Ngrams() []*Ngram {
	ngrams := make([]*Ngram, 0, m.TotalNgrams())
	for _, level := range m.levels {
		for _, words := range level {
			for _, ng := range words {
				ngrams = append(ngrams, ng)
			}
		}
	}
	return ngrams
}

// NgramCount returns the number of ngrams of the given order.
func (m *LanguageModel) NgramCount(order int) int {
	if order < 1 || order > len(m.levels) {
		return 0
	}
	count := 0
	for _, words := range m.levels[order-1] {
		count += len(words)
	}
	return count
}

// TotalNgrams returns the number of ngrams across all orders.
func (m *LanguageModel) TotalNgrams() int {
	total := 0
	for order := 1; order <= len(m.levels); order++ {
		total += m.NgramCount(order)
	}
	return total
}

// GetNgram looks up the ngram for a word sequence; the last element is
// the predicted word, the preceding ones its history. The returned
// error distinguishes a missing record (ErrMissingNgram) from a missing
// order level (ErrTooHighOrder).
func (m *LanguageModel) GetNgram(wordSequence []string) (*Ngram, error) {
	if len(wordSequence) == 0 {
		return nil, errors.New("empty word sequence")
	}
	historyOrder := len(wordSequence) - 1
	if historyOrder >= len(m.levels) {
		return nil, fmt.Errorf("order %d: %w", len(wordSequence), ErrTooHighOrder)
	}
	historyKey := strings.Join(wordSequence[:historyOrder], " ")
	ng, ok := m.levels[historyOrder][historyKey][wordSequence[historyOrder]]
	if !ok {
		return nil, fmt.Errorf("word sequence %q: %w", strings.Join(wordSequence, " "), ErrMissingNgram)
	}
	return ng, nil
}

// addNgram inserts an ngram, accumulating into an existing record with
// the same key. Ngrams have to arrive from low order to high order: a
// new order level may only be opened directly above the current top.
func (m *LanguageModel) addNgram(ng *Ngram) error {
	existing, err := m.GetNgram(ng.WordSequence())
	switch {
	case err == nil:
		return existing.Accumulate(ng)
	case errors.Is(err, ErrTooHighOrder):
		if m.Order()+1 != ng.Order() {
			return fmt.Errorf("ngram %q has order %d but the model's top order is %d: add ngrams from low order to high order", ng, ng.Order(), m.Order())
		}
		m.levels = append(m.levels, map[string]map[string]*Ngram{
			ng.historyKey(): {ng.Word: ng},
		})
		return nil
	case errors.Is(err, ErrMissingNgram):
		level := m.levels[ng.HistoryOrder()]
		words := level[ng.historyKey()]
		if words == nil {
			words = make(map[string]*Ngram)
			level[ng.historyKey()] = words
		}
		words[ng.Word] = ng
		return nil
	default:
		return err
	}
}

// DeleteNgram removes the exact entry for a word sequence. Deleting a
// sequence the model does not hold fails with ErrMissingNgram. Emptied
// top order levels are dropped, so the model's order shrinks and the
// written header never declares an order without ngrams.
func (m *LanguageModel) DeleteNgram(wordSequence []string) error {
	if len(wordSequence) == 0 {
		return errors.New("empty word sequence")
	}
	historyOrder := len(wordSequence) - 1
	if historyOrder < len(m.levels) {
		historyKey := strings.Join(wordSequence[:historyOrder], " ")
		words := m.levels[historyOrder][historyKey]
		if _, ok := words[wordSequence[historyOrder]]; ok {
			delete(words, wordSequence[historyOrder])
			if len(words) == 0 {
				delete(m.levels[historyOrder], historyKey)
			}
			for len(m.levels) > 0 && len(m.levels[len(m.levels)-1]) == 0 {
				m.levels = m.levels[:len(m.levels)-1]
			}
			return nil
		}
	}
	return fmt.Errorf("ngram %q is missing and can't be deleted: %w", strings.Join(wordSequence, " "), ErrMissingNgram)
}

// MapWord rewrites every occurrence of old to new across the whole
// model. Rewritten records that collide with an existing key are
// accumulated into it; the originals are removed afterwards. With
// recountBackOffs set, the back-off weights the rewrite invalidated are
// recounted at the end.
func (m *LanguageModel) MapWord(old, new string, recountBackOffs bool) error {
	if old == new {
		return nil
	}
	var deletions [][]string
	var staged []*Ngram
	for _, ng := range m.Ngrams() {
		oldSequence := ng.WordSequence()
		if !ng.MapWord(old, new) {
			continue
		}
		target, err := m.GetNgram(ng.WordSequence())
		switch {
		case err == nil:
			if err := target.Accumulate(ng); err != nil {
				return err
			}
		case errors.Is(err, ErrMissingNgram):
			staged = append(staged, ng)
		default:
			return err
		}
		deletions = append(deletions, oldSequence)
	}
	for _, seq := range deletions {
		if err := m.DeleteNgram(seq); err != nil {
			return err
		}
	}
	for _, ng := range staged {
		if err := m.addNgram(ng); err != nil {
			return err
		}
	}
	if recountBackOffs {
		return m.RecountBackOffs(true, false)
	}
	return nil
}

// RecountBackOffs recomputes back-off weights, either only those that
// are unset or non-negative (onlyMissing) or every one. With check set,
// recounted values are compared against the stored ones and deviations
// beyond the tolerance are logged.
func (m *LanguageModel) RecountBackOffs(onlyMissing, check bool) error {
	tolerance := 0.0
	if check {
		tolerance = backOffRecountTolerance
	}
	for _, ng := range m.Ngrams() {
		if onlyMissing {
			invalid := ng.BackOff.State == BackOffUnset ||
				(ng.BackOff.State == BackOffWeight && ng.BackOff.LogWeight >= 0)
			if !invalid {
				continue
			}
			m.log.Debug("recounting unset or non-negative back-off", zap.Stringer("ngram", ng))
		}
		bo, err := m.CountLogBackOff(ng, tolerance)
		if err != nil {
			return err
		}
		if bo.State == BackOffWeight && bo.LogWeight > 0 {
			m.log.Warn("counted positive log back-off",
				zap.Stringer("ngram", ng),
				zap.Float64("log_back_off", bo.LogWeight))
		}
		ng.BackOff = bo
	}
	return nil
}

// CountLogBackOff computes the back-off weight for the context an ngram
// opens, from the probability-mass-conservation identity of Katz
// back-off:
//
//	back_off(h) = (1 - sum P(w|h)) / (1 - sum P(w|h'))
//
// where w ranges over the words observed after history h and h' is h
// with its oldest word dropped. Both sums run in linear space; the
// ratio is returned as a base-10 log weight. Ngrams at the model's top
// order, end-of-sentence ngrams and contexts no ngram extends have no
// back-off. A positive tolerance turns on the check that compares the
// counted weight against the stored one.
func (m *LanguageModel) CountLogBackOff(ng *Ngram, tolerance float64) (BackOff, error) {
	if ng.Order() >= m.Order() || ng.Word == EndOfSentence {
		return NoBackOff(), nil
	}
	children := m.levels[ng.Order()][ng.String()]
	if len(children) == 0 {
		m.log.Debug("no ngrams with history", zap.Stringer("history", ng))
		return NoBackOff(), nil
	}
	numerator := 1.0
	denominator := 1.0
	for _, child := range children {
		numerator -= child.Prob()
		suffix, err := m.GetNgram(child.WordSequence()[1:])
		if err != nil {
			return BackOff{}, fmt.Errorf("can't count back-off for %q: %w", ng, err)
		}
		denominator -= suffix.Prob()
	}
	if numerator < 0 || denominator < 0 {
		return BackOff{}, fmt.Errorf("probability mass of ngrams with history %q exceeds 1 (numerator %g, denominator %g): %w",
			ng, numerator, denominator, ErrPositiveLogProbability)
	}
	counted := mathutil.ProbToLog10(numerator) - mathutil.ProbToLog10(denominator)
	stored, err := m.GetNgram(ng.WordSequence())
	if err != nil {
		return BackOff{}, fmt.Errorf("can't count back-off for %q: %w", ng, err)
	}
	if tolerance > 0 && stored.BackOff.State == BackOffWeight &&
		!scalar.EqualWithinAbs(stored.BackOff.LogWeight, counted, tolerance) {
		m.log.Warn("counted back-off differs from the stored one beyond tolerance",
			zap.Stringer("ngram", ng),
			zap.Float64("stored", stored.BackOff.LogWeight),
			zap.Float64("counted", counted))
	}
	return NewBackOff(counted), nil
}
