// Package urlnorm reduces legacy URLs to one canonical string form.
//
// Every URL entering the mapping table and every link target being rewritten
// passes through Normalize, so crawl-time and rewrite-time spellings of the
// same page (redundant slashes, deep ../ chains, mixed-case hosts) converge on
// an identical key.
package urlnorm

import (
	"net/url"
	"strings"
)

// Result is the outcome of normalizing one URL.
//
// Invalid results carry the input unchanged; callers must treat them as
// unresolvable and keep going.
type Result struct {
	URL     string
	Invalid bool
}

// Normalize resolves raw against base and returns the canonical form.
//
// Resolution follows RFC 3986 relative-reference rules. The resolved path is
// then rebuilt segment by segment: runs of separators collapse to one, "."
// segments drop, ".." pops at most to the root, a non-root trailing slash is
// dropped and an empty path becomes "/". Scheme and host are lowercased and
// default ports stripped; path and query keep their case and their original
// percent-encoding. Fragments stay attached (see LookupKey).
//
// A raw value that does not parse, or a relative raw with a missing or
// unusable base, comes back unchanged with Invalid set. Normalize never
// returns an error and is idempotent over its own output.
func Normalize(raw, base string) Result {
	trimmed := strings.TrimSpace(raw)

	ref, err := url.Parse(trimmed)
	if err != nil {
		return Result{URL: raw, Invalid: true}
	}

	u := ref
	if !ref.IsAbs() {
		b, berr := url.Parse(strings.TrimSpace(base))
		if berr != nil || !b.IsAbs() {
			return Result{URL: raw, Invalid: true}
		}
		u = b.ResolveReference(ref)
	}

	// Opaque forms (mailto:user@host) have no authority or path to touch.
	if u.Opaque != "" {
		return Result{URL: u.String()}
	}

	u.Host = canonicalHost(u.Scheme, u.Host)
	setCanonicalPath(u)

	return Result{URL: u.String()}
}

// LookupKey strips the fragment from a normalized URL. Mapping table keys are
// fragment-free; the rewriter re-attaches fragments after lookup.
func LookupKey(normalized string) string {
	if i := strings.IndexByte(normalized, '#'); i >= 0 {
		return normalized[:i]
	}
	return normalized
}

// Host returns the lowercased host of rawurl without any port, or "" when
// rawurl has none.
func Host(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func canonicalHost(scheme, host string) string {
	host = strings.ToLower(host)
	switch scheme {
	case "http":
		host = strings.TrimSuffix(host, ":80")
	case "https":
		host = strings.TrimSuffix(host, ":443")
	}
	return host
}

// setCanonicalPath rebuilds u's path from its escaped form so that
// percent-encoded bytes survive untouched. Empty segments are invisible to
// "..": "/a//../b" canonicalizes to "/b", matching the crawl-time algebra.
func setCanonicalPath(u *url.URL) {
	segs := strings.Split(u.EscapedPath(), "/")
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		switch s {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, s)
		}
	}
	escaped := "/" + strings.Join(out, "/")

	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		// EscapedPath output is always validly encoded; keep the parsed path.
		return
	}
	u.Path = unescaped
	u.RawPath = ""
	if escaped != u.EscapedPath() {
		u.RawPath = escaped
	}
}
