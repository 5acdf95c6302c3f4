package talks

import "sort"

// MemberIDs returns the admin ids plus the owner id, deduplicated and sorted.
func MemberIDs(adminIDs []int64, ownerID int64) []int64 {
	seen := make(map[int64]bool, len(adminIDs)+1)
	out := make([]int64, 0, len(adminIDs)+1)
	for _, id := range append(append([]int64(nil), adminIDs...), ownerID) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
