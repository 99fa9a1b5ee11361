package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIdentifier(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"single", "203.0.113.7", "203.0.113.7"},
		{"proxy chain", "203.0.113.7, 10.0.0.1, 10.0.0.2", "203.0.113.7"},
		{"padded", "  198.51.100.1  ", "198.51.100.1"},
		{"missing", "", "unknown"},
		{"blank first hop", " , 10.0.0.1", "unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("X-Forwarded-For", tc.header)
			}
			assert.Equal(t, tc.want, ClientIdentifier(req, "X-Forwarded-For", "unknown"))
		})
	}
}
