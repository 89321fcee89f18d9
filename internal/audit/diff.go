package audit

import "reflect"

// Diff produces one change per allowlisted field whose old and new values
// differ, in allowlist order. Equality is strict, including type: an int 3
// and an int64 3 count as a change. Fields absent from both states or equal
// in both are omitted, never recorded as no-ops.
//
// The allowlist keeps internal-only columns out of the log; callers project
// their entities down to the fields they are willing to expose.
func Diff(oldState, newState map[string]any, fields []string) []FieldChange {
	var changes []FieldChange
	for _, f := range fields {
		ov, inOld := oldState[f]
		nv, inNew := newState[f]
		if !inOld && !inNew {
			continue
		}
		if reflect.DeepEqual(ov, nv) {
			continue
		}
		changes = append(changes, FieldChange{Field: f, From: ov, To: nv})
	}
	return changes
}
