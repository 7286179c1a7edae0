package lexicon

import "strings"

// Annotation tags mark non-speech events in transcripts and
// dictionaries.
var (
	// SilenceTags mark stretches without speech.
	SilenceTags = map[string]bool{"<sil>": true}
	// NonsilenceTags mark spoken events that are not words.
	NonsilenceTags = map[string]bool{"<unk>": true, "<hes>": true}
	// AllTags is the union of the silence and non-silence tags.
	AllTags = map[string]bool{"<sil>": true, "<unk>": true, "<hes>": true}
)

// DeleteTags returns words with every annotation tag removed.
func DeleteTags(words []string) []string {
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !AllTags[w] {
			kept = append(kept, w)
		}
	}
	return kept
}

// DeleteTagsFromString removes annotation tags from a whitespace-split
// string of words and joins the rest with delimiter.
func DeleteTagsFromString(s, delimiter string) string {
	return strings.Join(DeleteTags(strings.Fields(s)), delimiter)
}
