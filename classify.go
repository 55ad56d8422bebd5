package swcache

import "strings"

// Class is the routing class of an intercepted request.
type Class int

const (
	ClassOther Class = iota
	ClassHTML
	ClassCritical
	ClassAsset
)

func (c Class) String() string {
	switch c {
	case ClassHTML:
		return "html"
	case ClassCritical:
		return "critical"
	case ClassAsset:
		return "asset"
	default:
		return "other"
	}
}

// Patterns is the static classification table. Extensions include the dot and
// are matched case-sensitively against the end of the URL path.
type Patterns struct {
	Critical    []string // runtime code served cache-first from the versioned core partition
	Images      []string
	Audio       []string
	Fonts       []string
	AssetPrefix string // reserved path prefix for long-lived static files
}

func DefaultPatterns() Patterns {
	return Patterns{
		Critical:    []string{".wasm", ".js"},
		Images:      []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"},
		Audio:       []string{".ogg", ".mp3", ".wav"},
		Fonts:       []string{".woff", ".woff2", ".ttf", ".otf"},
		AssetPrefix: "/assets/",
	}
}

func (p Patterns) isZero() bool {
	return len(p.Critical) == 0 && len(p.Images) == 0 && len(p.Audio) == 0 &&
		len(p.Fonts) == 0 && p.AssetPrefix == ""
}

// Classify maps a request path and its Accept header to a Class.
// First match wins: html, critical, asset, other.
func Classify(p Patterns, path, accept string) Class {
	if strings.Contains(accept, "text/html") {
		return ClassHTML
	}
	if hasAnySuffix(path, p.Critical) {
		return ClassCritical
	}
	if p.AssetPrefix != "" && strings.HasPrefix(path, p.AssetPrefix) {
		return ClassAsset
	}
	if hasAnySuffix(path, p.Images) || hasAnySuffix(path, p.Audio) || hasAnySuffix(path, p.Fonts) {
		return ClassAsset
	}
	return ClassOther
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if suf != "" && strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
