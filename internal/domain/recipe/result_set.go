package recipe

// ResultSet is the ordered list of records currently shown. A successful
// search replaces it wholesale; there is no merging.
type ResultSet struct {
	records []Record
}

// NewResultSet wraps records in response order
func NewResultSet(records ...Record) ResultSet {
	if len(records) == 0 {
		return ResultSet{}
	}
	out := make([]Record, len(records))
	copy(out, records)
	return ResultSet{records: out}
}

// Records returns the records in order
func (s ResultSet) Records() []Record {
	if len(s.records) == 0 {
		return nil
	}
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s ResultSet) Len() int      { return len(s.records) }
func (s ResultSet) IsEmpty() bool { return len(s.records) == 0 }

// Equal reports element-wise equality
func (s ResultSet) Equal(o ResultSet) bool {
	if len(s.records) != len(o.records) {
		return false
	}
	for i := range s.records {
		if !s.records[i].Equal(o.records[i]) {
			return false
		}
	}
	return true
}
