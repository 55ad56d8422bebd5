package util

import (
	"net/url"
	"strings"
)

// RequestKey returns the request identity used as the entry key inside a
// partition: "<METHOD> <scheme>://<host><path>[?<query>]". The fragment never
// reaches the network so it is dropped; scheme and host are case-folded.
func RequestKey(method string, u *url.URL) string {
	var b strings.Builder
	b.Grow(len(method) + 1 + len(u.Scheme) + 3 + len(u.Host) + len(u.Path) + 1 + len(u.RawQuery))
	b.WriteString(strings.ToUpper(method))
	b.WriteByte(' ')
	b.WriteString(strings.ToLower(u.Scheme))
	b.WriteString("://")
	b.WriteString(strings.ToLower(u.Host))
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	b.WriteString(path)
	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	return b.String()
}
