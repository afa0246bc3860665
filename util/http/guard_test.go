package http

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPublicIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ip   string
		want bool
	}{
		{"8.8.8.8", true},
		{"93.184.216.34", true},
		{"2606:4700:4700::1111", true},
		{"127.0.0.1", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"::1", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"224.0.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPublicIP(net.ParseIP(tt.ip)))
		})
	}
}

func TestCheckPublicURL(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckPublicURL("https://example.com/bg.png"))
	assert.NoError(t, CheckPublicURL("http://8.8.8.8:8080/bg.png"))

	for _, raw := range []string{
		"http://127.0.0.1/bg.png",
		"http://localhost:8080/bg.png",
		"http://api.localhost/bg.png",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]/bg.png",
		"http://10.0.0.5/bg.png",
	} {
		assert.ErrorIs(t, CheckPublicURL(raw), ErrForbiddenAddress, raw)
	}

	assert.Error(t, CheckPublicURL("file:///etc/passwd"))
	assert.Error(t, CheckPublicURL("http:///bg.png"))
}

func TestWithPublicOnly_RejectsLoopback(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("internal"))
	}))
	defer server.Close()

	// 未加限制时可以访问
	var body []byte
	require.NoError(t, NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL, Method: http.MethodGet, Response: &body,
	}))
	assert.Equal(t, "internal", string(body))

	body = nil
	err := NewHTTPClient(WithPublicOnly()).DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL, Method: http.MethodGet, Response: &body,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address not allowed")
	assert.Nil(t, body)
}
