package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		perPage string
		want    Request
	}{
		{name: "defaults", want: Request{Page: 1, PerPage: 10}},
		{name: "explicit", page: "3", perPage: "25", want: Request{Page: 3, PerPage: 25}},
		{name: "garbage", page: "abc", perPage: "x", want: Request{Page: 1, PerPage: 10}},
		{name: "zero and negative", page: "0", perPage: "-5", want: Request{Page: 1, PerPage: 10}},
		{name: "capped", page: "2", perPage: "1000", want: Request{Page: 2, PerPage: MaxPerPage}},
		{name: "huge page", page: "9223372036854775807", perPage: "100", want: Request{Page: MaxPage, PerPage: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.page, tt.perPage))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Request{Page: 1, PerPage: 10}.Offset())
	assert.Equal(t, 20, Request{Page: 3, PerPage: 10}.Offset())

	capped := Parse("9223372036854775807", "1000")
	assert.Positive(t, capped.Offset())
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		total int
		want  Meta
	}{
		{
			name:  "first of several",
			req:   Request{Page: 1, PerPage: 10},
			total: 25,
			want:  Meta{CurrentPage: 1, PageLimit: 10, Total: 25, TotalPages: 3, NextPage: intPtr(2)},
		},
		{
			name:  "middle",
			req:   Request{Page: 2, PerPage: 10},
			total: 25,
			want:  Meta{CurrentPage: 2, PageLimit: 10, Total: 25, TotalPages: 3, NextPage: intPtr(3), PreviousPage: intPtr(1)},
		},
		{
			name:  "last",
			req:   Request{Page: 3, PerPage: 10},
			total: 25,
			want:  Meta{CurrentPage: 3, PageLimit: 10, Total: 25, TotalPages: 3, PreviousPage: intPtr(2)},
		},
		{
			name:  "exact fit has no next page",
			req:   Request{Page: 2, PerPage: 5},
			total: 10,
			want:  Meta{CurrentPage: 2, PageLimit: 5, Total: 10, TotalPages: 2, PreviousPage: intPtr(1)},
		},
		{
			name:  "empty",
			req:   Request{Page: 1, PerPage: 10},
			total: 0,
			want:  Meta{CurrentPage: 1, PageLimit: 10, Total: 0, TotalPages: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paginate(tt.req, tt.total))
		})
	}
}
