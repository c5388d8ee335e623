package domain

import (
	"sort"
	"strings"
)

// SharedInterest is a read model derived from two profiles' declared
// interests. A profile's first listed interest is its main interest. Weight is
// 1 plus one for each member whose main interest it is.
type SharedInterest struct {
	Interest string `json:"interest"`
	Weight   int    `json:"weight"`
	IsMain   bool   `json:"is_main"`
}

// SharedInterests computes the intersection of two interest lists,
// case-insensitively, ordered by weight descending then name. Recomputed from
// profile data on demand; it has no lifecycle of its own.
func SharedInterests(a, b []string) []SharedInterest {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[norm(s)] = true
	}
	mainA, mainB := norm(a[0]), norm(b[0])

	var shared []SharedInterest
	seen := make(map[string]bool)
	for _, s := range a {
		key := norm(s)
		if key == "" || seen[key] || !inB[key] {
			continue
		}
		seen[key] = true
		weight := 1
		if key == mainA {
			weight++
		}
		if key == mainB {
			weight++
		}
		shared = append(shared, SharedInterest{
			Interest: key,
			Weight:   weight,
			IsMain:   key == mainA || key == mainB,
		})
	}
	sort.Slice(shared, func(i, j int) bool {
		if shared[i].Weight != shared[j].Weight {
			return shared[i].Weight > shared[j].Weight
		}
		return shared[i].Interest < shared[j].Interest
	})
	return shared
}

// ContainsInterest reports whether the category matches one of the shared
// interests.
func ContainsInterest(shared []SharedInterest, category string) bool {
	key := strings.ToLower(strings.TrimSpace(category))
	for _, s := range shared {
		if s.Interest == key {
			return true
		}
	}
	return false
}
