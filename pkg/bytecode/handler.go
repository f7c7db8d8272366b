package bytecode

// ExceptionHandler is one exception-table entry. The try range covers
// [StartPC, EndPC). CatchType is a constant-pool class index, 0 for catch-all.
type ExceptionHandler struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType int
}

// Covers reports whether the try range covers the given offset.
func (h ExceptionHandler) Covers(pc int) bool {
	return pc >= h.StartPC && pc < h.EndPC
}

// HandlerTable is a mutable exception table. It is shared by pointer between
// the owner of a method body and the frame generator, which rewrites entries
// when it patches dead code out of their try ranges.
type HandlerTable struct {
	entries []ExceptionHandler
}

// NewHandlerTable creates a table with the given entries.
func NewHandlerTable(entries ...ExceptionHandler) *HandlerTable {
	return &HandlerTable{entries: entries}
}

// Add appends one entry.
func (t *HandlerTable) Add(h ExceptionHandler) {
	t.entries = append(t.entries, h)
}

// Entries returns the current entries in table order.
func (t *HandlerTable) Entries() []ExceptionHandler {
	return t.entries
}

// Len returns the number of entries.
func (t *HandlerTable) Len() int {
	return len(t.entries)
}

// RemoveRange excises [start, end) from every try range: entries fully inside
// the range are dropped, overlapping ones are truncated, and entries strictly
// containing it are split in two around the hole.
func (t *HandlerTable) RemoveRange(start, end int) {
	rewritten := make([]ExceptionHandler, 0, len(t.entries))
	for _, e := range t.entries {
		switch {
		case start >= e.EndPC || end <= e.StartPC:
			rewritten = append(rewritten, e)
		case start <= e.StartPC && end >= e.EndPC:
			// complete removal
		case start <= e.StartPC:
			e.StartPC = end
			rewritten = append(rewritten, e)
		case end >= e.EndPC:
			e.EndPC = start
			rewritten = append(rewritten, e)
		default:
			left, right := e, e
			left.EndPC = start
			right.StartPC = end
			rewritten = append(rewritten, left, right)
		}
	}

	t.entries = rewritten
}
