// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package conflict

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// sortCollator produces the deterministic, locale-stable ordering spec.md
// requires for service_conflict_codes ("strictly ascending, no duplicates",
// spec.md §8). A root-locale collator is used instead of a bare
// sort.Strings so that any non-ASCII detail text merged alongside codes
// (spec.md §4.4.7's human-readable hints) sorts the same way regardless of
// the caller's OS locale, matching the convention the rest of the pack
// applies to any user-facing string ordering.
var sortCollator = collate.New(language.Und)

// SortedUnique merges one or more code lists into a deduplicated,
// ascending list.
func SortedUnique(lists ...[]Code) []Code {
	seen := make(map[Code]struct{})
	for _, l := range lists {
		for _, c := range l {
			seen[c] = struct{}{}
		}
	}
	out := make([]Code, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return sortCollator.CompareString(string(out[i]), string(out[j])) < 0
	})
	return out
}

// SortedUniqueStrings is SortedUnique over raw strings, used when merging
// attribute maps that were deserialized before being re-typed as Code.
func SortedUniqueStrings(lists ...[]string) []string {
	seen := make(map[string]struct{})
	for _, l := range lists {
		for _, s := range l {
			seen[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return sortCollator.CompareString(out[i], out[j]) < 0
	})
	return out
}

// MaxLevel returns the highest severity across a set of codes.
func MaxLevel(codes []Code) Level {
	max := LevelClean
	for _, c := range codes {
		if sev := c.Severity(); sev > max {
			max = sev
		}
	}
	return max
}

// MergeDetails unions detail hints per code, deduping and sorting each list.
func MergeDetails(maps ...map[string][]string) map[string][]string {
	merged := make(map[string][]string)
	for _, m := range maps {
		for k, v := range m {
			merged[k] = append(merged[k], v...)
		}
	}
	for k, v := range merged {
		merged[k] = SortedUniqueStrings(v)
	}
	return merged
}
