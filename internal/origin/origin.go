// Package origin decides the scheme and host used in public file URLs.
package origin

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"fileax/internal/config"
)

const (
	HeaderForwardedProto = "X-Forwarded-Proto"
	HeaderForwardedHost  = "X-Forwarded-Host"
)

// Request is the part of an inbound request an origin can be derived from.
// ForwardedProto and ForwardedHost hold the raw header values, possibly comma separated.
type Request struct {
	Scheme         string
	Host           string
	ForwardedProto string
	ForwardedHost  string
}

// Origin is a scheme and host pair.
type Origin struct {
	Scheme string
	Host   string
}

// URL joins the origin with an absolute path, escaping the path as needed.
func (o Origin) URL(path string) string {
	u := url.URL{Scheme: o.Scheme, Host: o.Host, Path: path}
	return u.String()
}

// String renders scheme://host.
func (o Origin) String() string {
	return o.Scheme + "://" + o.Host
}

// Resolver computes the origin for a request.
type Resolver interface {
	Resolve(r Request) Origin
}

// Static always answers with the configured origin.
type Static struct {
	origin Origin
}

// NewStatic builds scheme://host:port. An empty scheme means http.
func NewStatic(scheme, host, port string) *Static {
	if scheme == "" {
		scheme = "http"
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	}
	return &Static{origin: Origin{Scheme: scheme, Host: host}}
}

func (s *Static) Resolve(Request) Origin {
	return s.origin
}

// Forwarded prefers X-Forwarded-Proto and X-Forwarded-Host, taking the first
// value of each, and falls back to the connection scheme and Host header.
//
// The headers are trusted unconditionally: there is no check that the peer is
// a reverse proxy, so any client can make the server report a URL on a host of
// its choosing. Stored bytes and names are not affected.
type Forwarded struct{}

func NewForwarded() *Forwarded {
	return &Forwarded{}
}

func (Forwarded) Resolve(r Request) Origin {
	o := Origin{Scheme: r.Scheme, Host: r.Host}
	if p := firstValue(r.ForwardedProto); p != "" {
		o.Scheme = p
	}
	if h := firstValue(r.ForwardedHost); h != "" {
		o.Host = h
	}
	if o.Scheme == "" {
		o.Scheme = "http"
	}
	return o
}

// New selects a resolver by policy name.
func New(cfg *config.AppConfig) (Resolver, error) {
	switch cfg.OriginPolicy {
	case config.OriginPolicyStatic:
		return NewStatic(cfg.AppScheme, cfg.AppHost, cfg.Port), nil
	case config.OriginPolicyForwarded, "":
		return NewForwarded(), nil
	default:
		return nil, fmt.Errorf("unknown origin policy %q", cfg.OriginPolicy)
	}
}

func firstValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
