package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/products", nil)
	p := FromRequest(r, 5)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 5, p.PerPage)
	assert.Equal(t, 0, p.Offset)
}

func TestFromRequest_PageParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/products?page=3", nil)
	p := FromRequest(r, 5)

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 10, p.Offset)
}

func TestFromRequest_InvalidPageIgnored(t *testing.T) {
	for _, raw := range []string{"0", "-2", "abc", ""} {
		r := httptest.NewRequest("GET", "/products?page="+raw, nil)
		p := FromRequest(r, 5)
		assert.Equal(t, 1, p.Page, "page=%q", raw)
	}
}

func TestFromRequest_PerPageNotClientControlled(t *testing.T) {
	r := httptest.NewRequest("GET", "/products?per_page=100", nil)
	p := FromRequest(r, 5)
	assert.Equal(t, 5, p.PerPage)
}

func TestNewResult(t *testing.T) {
	data := []string{"a", "b", "c", "d", "e"}
	res := NewResult(data, 12, Params{Page: 1, PerPage: 5})

	assert.Equal(t, 12, res.TotalCount)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext)
	assert.False(t, res.HasPrev)
}

func TestNewResult_LastPage(t *testing.T) {
	res := NewResult([]string{"k", "l"}, 12, Params{Page: 3, PerPage: 5})

	assert.Equal(t, 3, res.TotalPages)
	assert.False(t, res.HasNext)
	assert.True(t, res.HasPrev)
}

func TestNewResult_Empty(t *testing.T) {
	res := NewResult([]string{}, 0, Params{Page: 1, PerPage: 5})

	assert.Equal(t, 0, res.TotalPages)
	assert.False(t, res.HasNext)
	assert.False(t, res.HasPrev)
}
