package pathutil

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"a":               "a",
		"a/b":             "a/b",
		"a/./b":           "a/b",
		"a/../b":          "b",
		"a/b/../../c":     "c",
		"../v1":           "../v1",
		"group/../v1":     "v1",
		"/a/../b":         "/b",
		"/a/../../b":      "/b",
		"/a/b/":           "/a/b/",
		"/":               "/",
		"./a/./b/..":      "a",
		"a//b":            "a/b",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"", "a", "a/b", "a/./b", "a/../b", "../v1", "group/../v1",
		"/a/../b", "/a/b/", "/", "a//b/../c/./d/../../e",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestJoin(t *testing.T) {
	cases := []struct{ base, child, want string }{
		{"Cond", "v0", "Cond/v0"},
		{"Cond/group", "../v1", "Cond/v1"},
		{"", "v0", "v0"},
		{"Cond", "", "Cond"},
		{"a/b/c", "../../d", "a/d"},
	}
	for _, c := range cases {
		if got := Join(c.base, c.child); got != c.want {
			t.Errorf("Join(%q, %q) = %q, want %q", c.base, c.child, got, c.want)
		}
	}
}
