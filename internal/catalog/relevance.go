// internal/catalog/relevance.go
package catalog

import (
	"sort"
	"strings"
)

// Relevance weights for fallback suggestions: a title substring match
// outweighs an author match, which outweighs a description match.
const (
	titleWeight       = 3
	authorWeight      = 2
	descriptionWeight = 1
)

// Relevance scores how well a book matches the query, case-insensitively.
// Zero means no field matched.
func Relevance(b Book, query string) int {
	q := strings.ToLower(query)
	score := 0
	if strings.Contains(strings.ToLower(b.Title), q) {
		score += titleWeight
	}
	if strings.Contains(strings.ToLower(b.Author), q) {
		score += authorWeight
	}
	if strings.Contains(strings.ToLower(b.Description), q) {
		score += descriptionWeight
	}
	return score
}

// RankByRelevance orders candidates by descending relevance, dropping
// books that match nowhere. The sort is stable, so ties keep the original
// listing order.
func RankByRelevance(candidates []Book, query string) []Book {
	type scored struct {
		book  Book
		score int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, b := range candidates {
		if s := Relevance(b, query); s > 0 {
			ranked = append(ranked, scored{book: b, score: s})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]Book, len(ranked))
	for i, r := range ranked {
		out[i] = r.book
	}
	return out
}
