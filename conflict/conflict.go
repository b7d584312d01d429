package conflict

import (
	"reflect"
	"sort"
	"time"
)

// Record is one version of a synced record, keyed by field name.
type Record = map[string]any

// Strategy is the rule used to pick the final value of a conflicted record.
type Strategy string

const (
	// StrategyLocal writes the local version back verbatim.
	StrategyLocal Strategy = "local"
	// StrategyRemote writes the remote version back verbatim.
	StrategyRemote Strategy = "remote"
	// StrategyMerge shallow-merges remote then local, so every field
	// present locally wins and remote-only fields are preserved.
	StrategyMerge Strategy = "merge"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyLocal, StrategyRemote, StrategyMerge:
		return true
	}
	return false
}

// DataConflict is a pair of divergent versions of the same record produced
// by concurrent edits. Conflicts are immutable once created; resolution
// removes them from the active set, it never mutates them.
type DataConflict struct {
	ID     string `json:"id"`
	Entity string `json:"entity"`
	Local  Record `json:"local_version"`
	Remote Record `json:"remote_version"`
	// Fields is the exact set of keys whose values differ between the two
	// versions, volatile bookkeeping fields excluded. Never empty.
	Fields     []string  `json:"conflict_fields"`
	DetectedAt time.Time `json:"detected_at"`
}

// defaultVolatileFields are bookkeeping fields the sync transport rewrites
// on every pass; a difference there is not a conflict.
var defaultVolatileFields = []string{"updatedAt", "syncedAt", "_version"}

// DiffFields returns the sorted symmetric set of keys whose values differ
// between local and remote, excluding the given volatile fields. A key
// present on only one side counts as differing.
func DiffFields(local, remote Record, volatile ...string) []string {
	skip := make(map[string]bool, len(volatile))
	for _, f := range volatile {
		skip[f] = true
	}

	fields := make([]string, 0)
	seen := make(map[string]bool, len(local))
	for k, lv := range local {
		seen[k] = true
		if skip[k] {
			continue
		}
		rv, ok := remote[k]
		if !ok || !reflect.DeepEqual(lv, rv) {
			fields = append(fields, k)
		}
	}
	for k := range remote {
		if seen[k] || skip[k] {
			continue
		}
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// Merge applies the merge strategy: a shallow merge where every key present
// in local wins and remote-only keys are preserved. This is field-level
// last-writer-wins with local always treated as the more recent writer; it
// can combine field values neither caregiver intended, which is an accepted
// limitation of the strategy, not a defect.
func Merge(local, remote Record) Record {
	out := make(Record, len(local)+len(remote))
	for k, v := range remote {
		out[k] = v
	}
	for k, v := range local {
		out[k] = v
	}
	return out
}

// copyRecord deep-copies maps and slices so conflict entries share no
// mutable state.
func copyRecord(r Record) Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return copyRecord(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
