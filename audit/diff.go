package audit

import "reflect"

// DiffFields compares old and new values for an explicit list of field names
// and returns only the fields that differ, each with its before/after pair.
// Returns nil, not an empty map, when nothing changed, so callers can test
// "any change occurred" with a nil check.
//
// Comparison is structural (reflect.DeepEqual), so nested maps and slices
// diff correctly. A field absent from one side counts as changed when present
// and non-equal on the other.
func DiffFields(oldRecord, newRecord map[string]any, fieldNames []string) map[string]FieldChange {
	var changes map[string]FieldChange
	for _, name := range fieldNames {
		oldValue, oldOK := oldRecord[name]
		newValue, newOK := newRecord[name]
		if !oldOK && !newOK {
			continue
		}
		if oldOK && newOK && reflect.DeepEqual(oldValue, newValue) {
			continue
		}
		if changes == nil {
			changes = make(map[string]FieldChange)
		}
		changes[name] = FieldChange{Old: oldValue, New: newValue}
	}
	return changes
}
