package common_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront/internal/common"
)

func TestParsePagination(t *testing.T) {
	page, perPage := common.ParsePagination(httptest.NewRequest("GET", "/?page=3&limit=500", nil), 20)
	require.Equal(t, 3, page)
	require.Equal(t, common.MaxPerPage, perPage)

	page, perPage = common.ParsePagination(httptest.NewRequest("GET", "/?page=-1&limit=x", nil), 20)
	require.Equal(t, 1, page)
	require.Equal(t, 20, perPage)
}

func TestPaginationBounds(t *testing.T) {
	start, end := common.Pagination{Page: 2, PerPage: 10, TotalItems: 15}.Bounds()
	require.Equal(t, 10, start)
	require.Equal(t, 15, end)

	start, end = common.Pagination{Page: 5, PerPage: 10, TotalItems: 15}.Bounds()
	require.Equal(t, start, end)

	start, end = common.Pagination{Page: 1 << 62, PerPage: 100, TotalItems: 3}.Bounds()
	require.Equal(t, 3, start)
	require.Equal(t, 3, end)

	start, end = common.Pagination{Page: 1, PerPage: 1 << 62, TotalItems: 3}.Bounds()
	require.Equal(t, 0, start)
	require.Equal(t, 3, end)
}

func TestParsePaginationHugePage(t *testing.T) {
	page, perPage := common.ParsePagination(httptest.NewRequest("GET", "/?page=4611686018427387904", nil), 20)
	start, end := common.Pagination{Page: page, PerPage: perPage, TotalItems: 3}.Bounds()
	require.Equal(t, 3, start)
	require.Equal(t, 3, end)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.9:5123"
	require.Equal(t, "10.0.0.9", common.ClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.7")
	require.Equal(t, "203.0.113.7", common.ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 198.51.100.4 , 10.0.0.1")
	require.Equal(t, "198.51.100.4", common.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "not-an-ip")
	require.Equal(t, "203.0.113.7", common.ClientIP(req))

	v6 := httptest.NewRequest("GET", "/", nil)
	v6.RemoteAddr = "[2001:db8::1]:443"
	require.Equal(t, "2001:db8::1", common.ClientIP(v6))
}
