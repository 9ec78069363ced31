// Package cache stores encoded audit reports for a limited time.
package cache

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache is a byte-oriented store with per-entry expiry.
type Cache interface {
	// Get returns the value stored under key. The boolean is false on a miss
	// or when the entry has expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

const keyPrefix = "audit:"

// Key returns the cache key for an audited URL. URLs differing only in host
// case, a trailing slash or a fragment share a key.
func Key(rawURL string) string {
	return keyPrefix + strconv.FormatUint(xxhash.Sum64String(NormalizeURL(rawURL)), 16)
}

// NormalizeURL lowercases scheme and host and drops the fragment and a
// trailing slash on the path.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	if u.RawPath != "" {
		u.RawPath = strings.TrimSuffix(u.RawPath, "/")
	}
	return u.String()
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, string) error { return nil }
func (Nop) Close() error { return nil }
