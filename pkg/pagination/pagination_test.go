package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantPage    int
		wantPerPage int
		wantOffset  int
	}{
		{"defaults", "", 1, 20, 0},
		{"custom", "?page=3&per_page=50", 3, 50, 100},
		{"page_size alias", "?page=2&page_size=10", 2, 10, 10},
		{"per_page wins over alias", "?per_page=5&page_size=10", 1, 5, 0},
		{"negative page", "?page=-1", 1, 20, 0},
		{"non numeric", "?page=abc&per_page=xyz", 1, 20, 0},
		{"per_page above max", "?per_page=101", 1, 20, 0},
		{"per_page at max", "?per_page=100", 1, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, "/rooms"+tt.query, nil))
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPerPage, p.PerPage)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}
}

func TestParams_SQL(t *testing.T) {
	limit, offset := Params{Page: 4, PerPage: 25}.SQL()
	assert.Equal(t, uint64(25), limit)
	assert.Equal(t, uint64(75), offset)
}

func TestNewResult(t *testing.T) {
	r := NewResult([]string{"a", "b"}, 45, Params{Page: 2, PerPage: 20})
	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.True(t, r.HasPrev)

	last := NewResult([]string{"x"}, 41, Params{Page: 3, PerPage: 20})
	assert.False(t, last.HasNext)
}

func TestNewResult_Empty(t *testing.T) {
	r := NewResult[int](nil, 0, DefaultParams())
	assert.NotNil(t, r.Data)
	assert.Empty(t, r.Data)
	assert.Equal(t, 0, r.TotalPages)
	assert.False(t, r.HasNext)
	assert.False(t, r.HasPrev)
}
