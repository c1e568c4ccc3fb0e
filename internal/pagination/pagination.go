// Package pagination resolves page tokens from query strings into concrete pages.
//
// Tokens never produce an error: anything that is not a number selects the first
// page, numbers past the end select the last page, and the token "last" selects
// the last page explicitly. An empty listing still has one (empty) page.
package pagination

import (
	"strconv"
	"strings"
)

// Page describes one window over a listing of Total items.
type Page struct {
	Number   int
	NumPages int
	PerPage  int
	Total    int64
}

// NumPages returns how many pages total items span; never less than 1.
func NumPages(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Resolve picks the page selected by token over total items.
func Resolve(token string, total int64, perPage int) Page {
	p := Page{
		NumPages: NumPages(total, perPage),
		PerPage:  perPage,
		Total:    total,
	}

	token = strings.TrimSpace(token)
	if token == "last" {
		p.Number = p.NumPages
		return p
	}

	n, err := strconv.Atoi(token)
	switch {
	case err != nil, n < 1:
		p.Number = 1
	case n > p.NumPages:
		p.Number = p.NumPages
	default:
		p.Number = n
	}
	return p
}

// Offset is the index of the first item on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Limit is the page size to query with.
func (p Page) Limit() int {
	return p.PerPage
}

func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) HasOtherPages() bool {
	return p.NumPages > 1
}

func (p Page) PreviousNumber() int { return p.Number - 1 }
func (p Page) NextNumber() int     { return p.Number + 1 }

// Window returns the page numbers around the current one, at most radius on each side.
func (p Page) Window(radius int) []int {
	start := p.Number - radius
	if start < 1 {
		start = 1
	}
	end := p.Number + radius
	if end > p.NumPages {
		end = p.NumPages
	}
	nums := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		nums = append(nums, i)
	}
	return nums
}

// StartIndex is the 1-based position of the first item on the page, 0 when empty.
func (p Page) StartIndex() int64 {
	if p.Total == 0 {
		return 0
	}
	return int64(p.Offset()) + 1
}

// EndIndex is the 1-based position of the last item on the page.
func (p Page) EndIndex() int64 {
	end := int64(p.Number * p.PerPage)
	if end > p.Total {
		end = p.Total
	}
	return end
}
