package bnpl

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SearchRecords filters the user's records by fuzzy vendor match, ranked by
// edit distance. An empty query returns everything unfiltered.
func (s *Service) SearchRecords(ctx context.Context, userID uuid.UUID, query string) ([]*Record, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return records, nil
	}

	targets := make([]string, len(records))
	for i, rec := range records {
		targets[i] = rec.Vendor
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Distance < ranks[j].Distance
	})

	matched := make([]*Record, 0, len(ranks))
	for _, rank := range ranks {
		matched = append(matched, records[rank.OriginalIndex])
	}
	return matched, nil
}
