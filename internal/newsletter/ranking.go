package newsletter

import (
	"sort"

	"hodl-digest/internal/domain"
)

// DefaultTopHolders is the size of the ranked cohort shown in the change table.
const DefaultTopHolders = 120

// TopHolderChanges collapses events to the latest one per owner, keeps owners ranked
// within limit and orders them by rank, larger amount first on equal rank.
func TopHolderChanges(events []domain.HolderChangeEvent, limit int) []domain.HolderChangeEvent {
	if len(events) == 0 || limit <= 0 {
		return nil
	}

	latest := make(map[string]int, len(events))
	order := make([]string, 0, len(events))
	for i, e := range events {
		j, seen := latest[e.OwnerAddress]
		if !seen {
			latest[e.OwnerAddress] = i
			order = append(order, e.OwnerAddress)
			continue
		}
		if e.ChangedAt.After(events[j].ChangedAt) {
			latest[e.OwnerAddress] = i
		}
	}

	out := make([]domain.HolderChangeEvent, 0, len(order))
	for _, owner := range order {
		e := events[latest[owner]]
		if e.Rank == nil || *e.Rank > int64(limit) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if *out[i].Rank != *out[j].Rank {
			return *out[i].Rank < *out[j].Rank
		}
		return out[i].Amount > out[j].Amount
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ChangedHolders keeps events whose held amount actually moved.
// Rank-only changes are dropped.
func ChangedHolders(events []domain.HolderChangeEvent) []domain.HolderChangeEvent {
	out := make([]domain.HolderChangeEvent, 0, len(events))
	for _, e := range events {
		if e.AmountDelta == nil || *e.AmountDelta == 0 {
			continue
		}
		out = append(out, e)
	}
	return out
}
