package alert

import (
	"fmt"
	"strings"
)

// Separator joins coalesced alert texts into one utterance.
const Separator = ". "

// DefaultMaxCoalesced is the number of literal texts kept per utterance.
const DefaultMaxCoalesced = 3

// Summary is the trailing entry that stands in for dropped texts.
func Summary(dropped int) string {
	return fmt.Sprintf("and %d more alerts", dropped)
}

// Coalesce merges texts into one utterance. When there are more than limit
// texts, the first limit are kept and a Summary of the rest is appended.
// Texts are joined with Separator. A limit below 1 keeps everything.
func Coalesce(texts []string, limit int) string {
	if len(texts) == 0 {
		return ""
	}
	if limit < 1 || len(texts) <= limit {
		return strings.Join(texts, Separator)
	}

	parts := make([]string, 0, limit+1)
	parts = append(parts, texts[:limit]...)
	parts = append(parts, Summary(len(texts)-limit))
	return strings.Join(parts, Separator)
}
