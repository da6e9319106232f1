package origin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileax/internal/config"
)

func TestStatic(t *testing.T) {
	r := NewStatic("", "localhost", "3000")

	got := r.Resolve(Request{
		Scheme:         "https",
		Host:           "ignored.example",
		ForwardedProto: "https",
		ForwardedHost:  "cdn.example.com",
	})

	assert.Equal(t, Origin{Scheme: "http", Host: "localhost:3000"}, got)
	assert.Equal(t, "http://localhost:3000/files/1-2.txt", got.URL("/files/1-2.txt"))
}

func TestStatic_IPv6Host(t *testing.T) {
	r := NewStatic("https", "::1", "8443")
	assert.Equal(t, "https://[::1]:8443", r.Resolve(Request{}).String())
}

func TestForwarded(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want Origin
	}{
		{
			name: "headers win over connection",
			req:  Request{Scheme: "http", Host: "10.0.0.5:3000", ForwardedProto: "https", ForwardedHost: "cdn.example.com"},
			want: Origin{Scheme: "https", Host: "cdn.example.com"},
		},
		{
			name: "no headers falls back to connection",
			req:  Request{Scheme: "http", Host: "localhost:3000"},
			want: Origin{Scheme: "http", Host: "localhost:3000"},
		},
		{
			name: "only proto forwarded",
			req:  Request{Scheme: "http", Host: "files.example.com", ForwardedProto: "https"},
			want: Origin{Scheme: "https", Host: "files.example.com"},
		},
		{
			name: "comma separated chain uses first hop",
			req:  Request{Scheme: "http", Host: "internal", ForwardedProto: "https, http", ForwardedHost: " edge.example.com ,internal"},
			want: Origin{Scheme: "https", Host: "edge.example.com"},
		},
		{
			name: "blank header ignored",
			req:  Request{Scheme: "https", Host: "files.example.com", ForwardedProto: " ", ForwardedHost: ","},
			want: Origin{Scheme: "https", Host: "files.example.com"},
		},
		{
			name: "missing scheme defaults to http",
			req:  Request{Host: "files.example.com"},
			want: Origin{Scheme: "http", Host: "files.example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewForwarded().Resolve(tt.req))
		})
	}
}

// Forwarded headers are taken at face value, so a direct client can pick the
// host that ends up in the returned URL.
func TestForwarded_TrustsClientSuppliedHeaders(t *testing.T) {
	got := NewForwarded().Resolve(Request{
		Scheme:         "http",
		Host:           "files.example.com",
		ForwardedProto: "javascript",
		ForwardedHost:  "attacker.example",
	})

	assert.Equal(t, "javascript://attacker.example/files/1-2.png", got.URL("/files/1-2.png"))
}

func TestOrigin_URLEscapesPath(t *testing.T) {
	o := Origin{Scheme: "https", Host: "files.example.com"}
	assert.Equal(t, "https://files.example.com/files/1-2.tar%20gz", o.URL("/files/1-2.tar gz"))
	assert.Equal(t, "https://files.example.com/files/1-2.%3F", o.URL("/files/1-2.?"))
}

func TestNew(t *testing.T) {
	cfg := config.Default()

	r, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Forwarded{}, r)

	cfg.OriginPolicy = config.OriginPolicyStatic
	r, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", r.Resolve(Request{}).String())

	cfg.OriginPolicy = "nope"
	_, err = New(cfg)
	assert.Error(t, err)
}
