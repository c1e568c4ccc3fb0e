package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		total    int64
		wantPage int
		wantNum  int
	}{
		{"empty token", "", 45, 1, 3},
		{"non numeric", "abc", 45, 1, 3},
		{"first page", "1", 45, 1, 3},
		{"middle page", "2", 45, 2, 3},
		{"beyond last", "99", 45, 3, 3},
		{"zero", "0", 45, 1, 3},
		{"negative", "-4", 45, 1, 3},
		{"last keyword", "last", 45, 3, 3},
		{"padded", " 2 ", 45, 2, 3},
		{"no items", "5", 0, 1, 1},
		{"exact multiple", "3", 40, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Resolve(tt.token, tt.total, 20)
			assert.Equal(t, tt.wantPage, p.Number)
			assert.Equal(t, tt.wantNum, p.NumPages)
		})
	}
}

func TestPageWindowing(t *testing.T) {
	p := Resolve("3", 45, 20)
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 20, p.Limit())
	assert.Equal(t, int64(41), p.StartIndex())
	assert.Equal(t, int64(45), p.EndIndex())
	assert.True(t, p.HasPrevious())
	assert.False(t, p.HasNext())
	assert.Equal(t, 2, p.PreviousNumber())

	empty := Resolve("", 0, 20)
	assert.Equal(t, int64(0), empty.StartIndex())
	assert.Equal(t, int64(0), empty.EndIndex())
	assert.False(t, empty.HasOtherPages())
}

func TestWindow(t *testing.T) {
	p := Resolve("5", 200, 20)
	assert.Equal(t, []int{3, 4, 5, 6, 7}, p.Window(2))

	p = Resolve("1", 200, 20)
	assert.Equal(t, []int{1, 2, 3}, p.Window(2))

	p = Resolve("10", 200, 20)
	assert.Equal(t, []int{8, 9, 10}, p.Window(2))
}

func TestNumPages(t *testing.T) {
	assert.Equal(t, 1, NumPages(0, 20))
	assert.Equal(t, 1, NumPages(20, 20))
	assert.Equal(t, 2, NumPages(21, 20))
	assert.Equal(t, 1, NumPages(5, 0))
}
