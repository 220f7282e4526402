package records

// Field is a logical field name. Physical column names differ between tables,
// so every logical field maps to a prioritized list of candidate keys.
type Field string

const (
	FieldSession     Field = "session"
	FieldSpeaker     Field = "speaker"
	FieldParty       Field = "party"
	FieldCommittee   Field = "committee"
	FieldCategory    Field = "category"
	FieldSubcategory Field = "subcategory"
	FieldScope       Field = "scope"
	FieldCount       Field = "count"
	FieldYear        Field = "year"
	FieldQuarter     Field = "quarter"
	FieldRows        Field = "rows"
	FieldDocs        Field = "docs"
	FieldTerm        Field = "assembly"
	FieldDate        Field = "date"
	FieldKeyword     Field = "keyword"
	FieldRequester   Field = "requester"
)

// FieldTable is the lookup table: logical field -> candidate keys, first present non-empty value wins.
// Schema drift is handled by editing the table, not the readers.
type FieldTable map[Field][]string

// DefaultFields returns the candidate keys observed across the assembly tables.
func DefaultFields() FieldTable {
	return FieldTable{
		FieldSession:     {"회차", "회의회차", "session_no", "session", "session_dir"},
		FieldSpeaker:     {"speaker_name", "의원명", "이름", "name", "speaker"},
		FieldParty:       {"party", "정당", "소속정당", "소속"},
		FieldCommittee:   {"위원회", "committee", "회의명", "meeting_name"},
		FieldCategory:    {"label_l2", "l2", "category", "분류"},
		FieldSubcategory: {"label_l3", "l3", "subcategory", "세부분류"},
		FieldScope:       {"scope", "유형"},
		FieldCount:       {"count", "cnt", "질의수", "발언수", "num_questions", "value"},
		FieldYear:        {"year", "연도"},
		FieldQuarter:     {"quarter", "분기"},
		FieldRows:        {"rows"},
		FieldDocs:        {"docs"},
		FieldTerm:        {"assembly", "대수"},
		FieldDate:        {"date", "회의일자", "created_at"},
		FieldKeyword:     {"keyword", "키워드"},
		FieldRequester:   {"요구의원", "requester", "의원명"},
	}
}

// With returns a copy of the table where f resolves through keys.
func (t FieldTable) With(f Field, keys ...string) FieldTable {
	out := make(FieldTable, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	out[f] = append([]string(nil), keys...)
	return out
}

// Candidates returns the prioritized keys for f, falling back to the logical name itself.
func (t FieldTable) Candidates(f Field) []string {
	if keys, ok := t[f]; ok && len(keys) > 0 {
		return keys
	}
	return []string{string(f)}
}

// String returns the first present, non-empty value of f ("" when absent).
func (t FieldTable) String(r Record, f Field) string {
	for _, key := range t.Candidates(f) {
		if s := r.Text(key); s != "" {
			return s
		}
	}
	return ""
}

// Int returns the first candidate of f holding an integral number.
func (t FieldTable) Int(r Record, f Field) (int, bool) {
	for _, key := range t.Candidates(f) {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if n, ok := SafeInt(v); ok {
			return n, true
		}
	}
	return 0, false
}

// Float returns the first candidate of f holding a number.
func (t FieldTable) Float(r Record, f Field) (float64, bool) {
	for _, key := range t.Candidates(f) {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if n, ok := SafeFloat(v); ok {
			return n, true
		}
	}
	return 0, false
}

// ScopeID extracts a scope identifier ("415회", 415, "제415회 국회") from f using the
// first-integer heuristic. The first candidate yielding a number wins.
func (t FieldTable) ScopeID(r Record, f Field) (int, bool) {
	for _, key := range t.Candidates(f) {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if n, ok := FirstInt(v); ok {
			return n, true
		}
	}
	return 0, false
}
