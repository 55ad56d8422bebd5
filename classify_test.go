package swcache

import "testing"

func TestClassify(t *testing.T) {
	p := DefaultPatterns()
	cases := []struct {
		path, accept string
		want         Class
	}{
		{"/", "text/html,application/xhtml+xml", ClassHTML},
		{"/fishy.js", "text/html", ClassHTML}, // accept wins over extension
		{"/fishy.js", "*/*", ClassCritical},
		{"/fishy_bg.wasm", "", ClassCritical},
		{"/assets/levels/1.json", "*/*", ClassAsset},
		{"/assets/app.js", "*/*", ClassCritical}, // critical before asset prefix
		{"/img/fish.png", "image/*", ClassAsset},
		{"/sfx/splash.ogg", "", ClassAsset},
		{"/fonts/a.woff2", "", ClassAsset},
		{"/img/FISH.PNG", "", ClassOther}, // case-sensitive
		{"/api/scores", "application/json", ClassOther},
		{"/nested/assets/x", "", ClassOther}, // prefix, not substring
		{"", "", ClassOther},
	}
	for _, tc := range cases {
		if got := Classify(p, tc.path, tc.accept); got != tc.want {
			t.Fatalf("Classify(%q, %q) = %s, want %s", tc.path, tc.accept, got, tc.want)
		}
	}
}

func TestClassifyCustomPatterns(t *testing.T) {
	p := Patterns{Critical: []string{".mjs"}, Images: []string{".avif"}}
	if got := Classify(p, "/app.mjs", ""); got != ClassCritical {
		t.Fatalf("got %s, want critical", got)
	}
	if got := Classify(p, "/app.js", ""); got != ClassOther {
		t.Fatalf("got %s, want other", got)
	}
	if got := Classify(p, "/assets/x.bin", ""); got != ClassOther {
		t.Fatalf("empty prefix must not match everything, got %s", got)
	}
	if got := Classify(p, "/p.avif", ""); got != ClassAsset {
		t.Fatalf("got %s, want asset", got)
	}
}
