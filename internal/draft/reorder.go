package draft

import (
	"slices"

	"github.com/julianstephens/callcoach/internal/models"
)

// Reorder returns a copy of list with the element at from moved to to.
// Out-of-range indices return an unchanged copy.
func Reorder[T any](list []T, from, to int) []T {
	out := slices.Clone(list)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

// scopeKey identifies the ordering bucket of a criterion: its group id, or the
// empty string for ungrouped criteria.
func scopeKey(c models.Criterion) string {
	if c.GroupID == nil {
		return ""
	}
	return *c.GroupID
}

// resequenceGroups rewrites group sort orders to 0..n-1 following their
// current relative order.
func resequenceGroups(groups []models.Group) {
	idx := make([]int, len(groups))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return groups[a].SortOrder - groups[b].SortOrder
	})
	for order, i := range idx {
		groups[i].SortOrder = order
	}
}

// resequenceCriteria rewrites criterion sort orders so every scope is
// numbered 0..n-1 with no gaps or duplicates.
func resequenceCriteria(criteria []models.Criterion) {
	scopes := make(map[string][]int)
	var keys []string
	for i, c := range criteria {
		k := scopeKey(c)
		if _, ok := scopes[k]; !ok {
			keys = append(keys, k)
		}
		scopes[k] = append(scopes[k], i)
	}
	for _, k := range keys {
		idx := scopes[k]
		slices.SortStableFunc(idx, func(a, b int) int {
			return criteria[a].SortOrder - criteria[b].SortOrder
		})
		for order, i := range idx {
			criteria[i].SortOrder = order
		}
	}
}

func sortedGroups(groups []models.Group) []models.Group {
	out := slices.Clone(groups)
	slices.SortStableFunc(out, func(a, b models.Group) int {
		return a.SortOrder - b.SortOrder
	})
	return out
}

func scopeCriteria(criteria []models.Criterion, groupID *string) []models.Criterion {
	var out []models.Criterion
	for _, c := range criteria {
		if c.InGroup(groupID) {
			out = append(out, c.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b models.Criterion) int {
		return a.SortOrder - b.SortOrder
	})
	return out
}
