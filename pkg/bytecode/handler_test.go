package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerCovers(t *testing.T) {
	h := ExceptionHandler{StartPC: 4, EndPC: 10, HandlerPC: 20}
	assert.False(t, h.Covers(3))
	assert.True(t, h.Covers(4))
	assert.True(t, h.Covers(9))
	assert.False(t, h.Covers(10))
}

func TestRemoveRange(t *testing.T) {
	entry := ExceptionHandler{StartPC: 10, EndPC: 20, HandlerPC: 30, CatchType: 1}

	tests := []struct {
		name       string
		start, end int
		want       []ExceptionHandler
	}{
		{
			name:  "before try block",
			start: 0, end: 10,
			want: []ExceptionHandler{entry},
		},
		{
			name:  "after try block",
			start: 20, end: 25,
			want: []ExceptionHandler{entry},
		},
		{
			name:  "covers whole try block",
			start: 8, end: 22,
			want: []ExceptionHandler{},
		},
		{
			name:  "exact try block",
			start: 10, end: 20,
			want: []ExceptionHandler{},
		},
		{
			name:  "cuts leading part",
			start: 5, end: 14,
			want: []ExceptionHandler{{StartPC: 14, EndPC: 20, HandlerPC: 30, CatchType: 1}},
		},
		{
			name:  "cuts trailing part",
			start: 16, end: 25,
			want: []ExceptionHandler{{StartPC: 10, EndPC: 16, HandlerPC: 30, CatchType: 1}},
		},
		{
			name:  "splits try block",
			start: 13, end: 16,
			want: []ExceptionHandler{
				{StartPC: 10, EndPC: 13, HandlerPC: 30, CatchType: 1},
				{StartPC: 16, EndPC: 20, HandlerPC: 30, CatchType: 1},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			table := NewHandlerTable(entry)
			table.RemoveRange(tc.start, tc.end)
			assert.Equal(t, tc.want, table.Entries())
		})
	}
}

func TestRemoveRangeKeepsOtherEntries(t *testing.T) {
	table := NewHandlerTable(
		ExceptionHandler{StartPC: 0, EndPC: 5, HandlerPC: 40},
		ExceptionHandler{StartPC: 5, EndPC: 15, HandlerPC: 41},
		ExceptionHandler{StartPC: 15, EndPC: 30, HandlerPC: 42},
	)
	table.RemoveRange(5, 15)

	assert.Equal(t, []ExceptionHandler{
		{StartPC: 0, EndPC: 5, HandlerPC: 40},
		{StartPC: 15, EndPC: 30, HandlerPC: 42},
	}, table.Entries())
}
