package domain

import "strings"

// Row is a single statistics line keyed by column name. Values are kept as
// strings exactly as they appeared in the source file; numeric
// interpretation happens only at comparison time in the view engine.
type Row map[string]string

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset holds the parsed rows for one (partition key, category) pair
// together with the column order of the source file's header. Column order
// is significant for display and export and cannot be recovered from the
// row maps themselves.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Clone returns a deep copy of the dataset so callers and the store never
// share mutable substructure.
func (d Dataset) Clone() Dataset {
	out := Dataset{}
	if d.Columns != nil {
		out.Columns = make([]string, len(d.Columns))
		copy(out.Columns, d.Columns)
	}
	if d.Rows != nil {
		out.Rows = make([]Row, len(d.Rows))
		for i, r := range d.Rows {
			out.Rows[i] = r.Clone()
		}
	}
	return out
}

// Category is one of the fixed statistical groupings a dataset belongs to.
type Category string

const (
	CategoryBatting     Category = "batting"
	CategoryBaserunning Category = "baserunning"
	CategoryFielding    Category = "fielding"
	CategoryPitching    Category = "pitching"
)

// Categories returns the closed set of valid categories in their canonical
// order. The first entry is the default selection.
func Categories() []Category {
	return []Category{
		CategoryBatting,
		CategoryBaserunning,
		CategoryFielding,
		CategoryPitching,
	}
}

// ParseCategory matches s case-insensitively against the category set.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(s)) {
	case CategoryBatting:
		return CategoryBatting, true
	case CategoryBaserunning:
		return CategoryBaserunning, true
	case CategoryFielding:
		return CategoryFielding, true
	case CategoryPitching:
		return CategoryPitching, true
	}
	return "", false
}

// Classification is the (partition key, category) pair derived from a
// stats file name.
type Classification struct {
	Key      string   `json:"key"`
	Category Category `json:"category"`
}

// Direction is a sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortDirective controls the ordering stage of the view engine. A zero
// directive (empty column) means the original order is preserved.
type SortDirective struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// IsZero reports whether no sort has been requested.
func (d SortDirective) IsZero() bool {
	return d.Column == ""
}

// Selection is the transient UI state: which slice of the store is active
// and how it is being viewed.
type Selection struct {
	Key      string        `json:"key"`
	Category Category      `json:"category"`
	Filter   string        `json:"filter"`
	Sort     SortDirective `json:"sort"`
}
