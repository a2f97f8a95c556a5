package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stockfolio/internal/httpx"
)

func TestDo_DefaultHeaders(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := httpx.New(time.Second)
	c.Headers = map[string]string{"X-Test": "yes", "X-Keep": "overridden"}

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	req.Header.Set("X-Keep", "keep")

	res, err := c.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Equal(t, "stockfolio/1.0", got.Get("User-Agent"))
	require.Equal(t, "yes", got.Get("X-Test"))
	require.Equal(t, "keep", got.Get("X-Keep"))
}
