package registry

import "egrul/internal/registry/models"

// Selection is the outcome of choosing one canonical row from a search.
type Selection struct {
	Record models.RawRecord
	Found  bool
	// SingleRecord is set when the search returned exactly one row.
	SingleRecord bool
	// ActiveCount is the number of rows lacking termination and invalidity
	// markers.
	ActiveCount int
	Total       int
}

// Ambiguous reports whether more than one active row competed for selection.
func (s Selection) Ambiguous() bool {
	return s.ActiveCount > 1
}

// Choose picks the canonical row: the only row when there is one, otherwise
// the first active row, otherwise the first row overall. The choice is
// deterministic even when several rows are active; callers needing every row
// use the search result directly.
func Choose(result models.SearchResult) Selection {
	rows := result.Rows
	active := result.Active()
	sel := Selection{
		ActiveCount: len(active),
		Total:       len(rows),
	}
	switch {
	case len(rows) == 0:
		return sel
	case len(rows) == 1:
		sel.Record = rows[0]
		sel.SingleRecord = true
	case len(active) > 0:
		sel.Record = active[0]
	default:
		sel.Record = rows[0]
	}
	sel.Found = true
	return sel
}
