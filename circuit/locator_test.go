package circuit

import "testing"

func fakeExists(present ...string) func(string) bool {
	set := make(map[string]bool, len(present))
	for _, p := range present {
		set[p] = true
	}
	return func(path string) bool { return set[path] }
}

func TestResolveExplicit(t *testing.T) {
	l := Locator{Exists: fakeExists()}
	// explicit paths are returned unchanged, even when they do not exist
	for _, p := range []string{"mycircuit.json", "does/not/exist.r1cs"} {
		if got := l.Resolve(p); got != p {
			t.Errorf("Resolve(%q) = %q, want it unchanged", p, got)
		}
	}
}

func TestResolveDefaults(t *testing.T) {
	cases := []struct {
		name    string
		present []string
		want    string
	}{
		{"both exist", []string{DefaultBinaryName, DefaultJSONName}, DefaultBinaryName},
		{"binary only", []string{DefaultBinaryName}, DefaultBinaryName},
		{"json only", []string{DefaultJSONName}, DefaultJSONName},
		{"neither", nil, DefaultBinaryName},
	}
	for _, c := range cases {
		l := Locator{Exists: fakeExists(c.present...)}
		if got := l.Resolve(""); got != c.want {
			t.Errorf("%s: Resolve(\"\") = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"circuit.json":     FormatJSON,
		"sub/dir/foo.json": FormatJSON,
		"circuit.r1cs":     FormatBinary,
		"circuit":          FormatBinary,
		"circuit.json.bak": FormatBinary,
	}
	for path, want := range cases {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %v, want %v", path, got, want)
		}
	}
}
