package aud

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ASNResolver labels a remote address with an autonomous system number
// string, for the "remote_as" field SPEC_FULL.md §3 adds to AUDRecord
// beyond what the distilled spec asked for. Resolution is out of this
// sensor's line-of-sight path: it is advisory metadata attached to a
// record, never consulted by any detector.
type ASNResolver interface {
	Lookup(remoteIP string) (asn string, ok bool)
}

// NoopResolver never resolves anything. It is the default: this sensor
// ships with no WHOIS/ASN backend wired in, but the interface lets one be
// added (a local MaxMind/GeoLite database, a WHOIS client) without
// touching AUDRecord.
type NoopResolver struct{}

func (NoopResolver) Lookup(string) (string, bool) { return "", false }

// CachingResolver memoizes a slow ASNResolver's answers, grounded on the
// teacher's patrickmn/go-cache usage pattern (TTL expiry plus an absolute
// cleanup sweep). Negative lookups are cached too, at a shorter TTL, so a
// resolver backed by a flaky network doesn't get hammered for addresses
// that never resolve.
type CachingResolver struct {
	next    ASNResolver
	cache   *cache.Cache
	missTTL time.Duration
}

// NewCachingResolver wraps next with an in-memory TTL cache. hitTTL governs
// successful lookups, missTTL governs ones that came back not-ok.
func NewCachingResolver(next ASNResolver, hitTTL, missTTL time.Duration) *CachingResolver {
	return &CachingResolver{
		next:  next,
		cache: cache.New(hitTTL, hitTTL*2),
		// missTTL is applied per-entry below via cache.Set's explicit
		// duration argument, rather than the cache's default.
		missTTL: missTTL,
	}
}

func (r *CachingResolver) Lookup(remoteIP string) (string, bool) {
	if v, found := r.cache.Get(remoteIP); found {
		entry := v.(asnCacheEntry)
		return entry.asn, entry.ok
	}

	asn, ok := r.next.Lookup(remoteIP)
	ttl := cache.DefaultExpiration
	if !ok {
		ttl = r.missTTL
	}
	r.cache.Set(remoteIP, asnCacheEntry{asn: asn, ok: ok}, ttl)
	return asn, ok
}

type asnCacheEntry struct {
	asn string
	ok  bool
}
