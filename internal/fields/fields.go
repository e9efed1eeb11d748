// Package fields normalizes GitHub Projects v2 custom field values.
//
// Project items reach us in three response shapes depending on which query
// produced them: a map keyed by field name (enterprise project queries), a
// list of (field, value) nodes (repository projectItems queries), or a single
// pre-selected field (legacy repository queries). Normalize resolves all
// three into one FieldSet so classification never branches on the source.
package fields

import "time"

// StatusField is the name of the single-select workflow status field on a
// project board.
const StatusField = "Status"

// dateLayout is the wire format of ProjectV2 date field values.
const dateLayout = "2006-01-02"

// FieldValue is one custom field value on a project item. Date is set for
// date fields, Name for single-select fields; the remaining fields of the
// wire record are not carried.
type FieldValue struct {
	Date string `json:"date,omitempty"`
	Name string `json:"name,omitempty"`
}

// FieldRef identifies the field a value belongs to.
type FieldRef struct {
	Name string `json:"name"`
}

// FieldNode pairs a field reference with its value, the element shape of the
// repository query's fieldValues list.
type FieldNode struct {
	Field FieldRef `json:"field"`
	FieldValue
}

// LegacyValue is the narrow fieldValueByName shape returned by older
// repository queries. The record only ever represents the due-date value
// with the Status value nested inside it; any other field the project
// defines is not present in this shape.
type LegacyValue struct {
	FieldValue
	Status *FieldValue `json:"Status,omitempty"`
}

// RawItem is the tagged union of the three field-value shapes a raw project
// item can carry. At most one member is normally populated; when several
// are, the first non-empty shape in declaration order wins and the rest
// are ignored, never merged.
type RawItem struct {
	// ByName maps field name directly to its value (enterprise projects).
	ByName map[string]FieldValue `json:"fieldValuesByName,omitempty"`
	// Nodes lists field/value pairs (repository projectItems).
	Nodes []FieldNode `json:"fieldValues,omitempty"`
	// Legacy holds a single pre-selected field (legacy repository queries).
	Legacy *LegacyValue `json:"fieldValueByName,omitempty"`
}

// FieldSet is the canonical field name to value lookup produced by
// Normalize. Lookups for unknown names return ok=false, never an error.
type FieldSet map[string]FieldValue

// Normalize converts a raw project item into a FieldSet. dueDateField names
// the configured due-date field, needed to map the legacy single-field shape.
func Normalize(raw RawItem, dueDateField string) FieldSet {
	fs := make(FieldSet)

	switch {
	case len(raw.ByName) > 0:
		for name, value := range raw.ByName {
			fs[name] = value
		}

	case len(raw.Nodes) > 0:
		// Nodes lacking a field name are untyped fragments; skip them.
		// Map assignment makes the last duplicate win.
		for _, node := range raw.Nodes {
			if node.Field.Name == "" {
				continue
			}
			fs[node.Field.Name] = node.FieldValue
		}

	case raw.Legacy != nil:
		if raw.Legacy.Status != nil {
			fs[StatusField] = *raw.Legacy.Status
		}
		fs[dueDateField] = raw.Legacy.FieldValue
	}

	return fs
}

// Lookup returns the value for a field name.
func (fs FieldSet) Lookup(name string) (FieldValue, bool) {
	v, ok := fs[name]
	return v, ok
}

// StatusName returns the selected option name of the Status field, if any.
func (fs FieldSet) StatusName() (string, bool) {
	v, ok := fs[StatusField]
	if !ok || v.Name == "" {
		return "", false
	}
	return v.Name, true
}

// DueDate parses the named date field into a calendar date (midnight UTC).
// An absent field, an empty date, or an unparseable date all report ok=false.
func (fs FieldSet) DueDate(name string) (time.Time, bool) {
	v, ok := fs[name]
	if !ok || v.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, v.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
