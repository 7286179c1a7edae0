package lm

// Wordset enumerates a vocabulary. Language models, pronunciation
// dictionaries and plain word lists all implement it, so any of them
// can supply the reference vocabulary for Check.
type Wordset interface {
	Words() (map[string]bool, error)
}
