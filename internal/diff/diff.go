// Package diff classifies the current collection against the prior snapshot.
package diff

import "github.com/petrescueapp/data-collector/internal/model"

// Result partitions the two record sets by source URL. New and Updated keep
// the iteration order of the current set; DeletedCandidates keeps the order
// of the previous set. Unchanged records appear in none of the three.
type Result struct {
	New               []model.Record
	Updated           []model.Record
	DeletedCandidates []string
}

// Classify compares current against previous, keyed by exact SourceURL string
// match. Neither input is mutated.
func Classify(current, previous []model.Record) Result {
	previousByURL := make(map[string]model.Record, len(previous))
	for _, record := range previous {
		previousByURL[record.SourceURL] = record
	}
	currentURLs := make(map[string]bool, len(current))

	var result Result
	for _, record := range current {
		currentURLs[record.SourceURL] = true
		prior, seen := previousByURL[record.SourceURL]
		switch {
		case !seen:
			result.New = append(result.New, record)
		case !record.Equal(prior):
			result.Updated = append(result.Updated, record)
		}
	}
	for _, record := range previous {
		if !currentURLs[record.SourceURL] {
			result.DeletedCandidates = append(result.DeletedCandidates, record.SourceURL)
		}
	}
	return result
}
