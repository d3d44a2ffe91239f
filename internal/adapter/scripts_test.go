package adapter

import "testing"

func TestScriptRegistryAdd(t *testing.T) {
	r := newScriptRegistry()

	s := r.add("42", "file:///app/main.js", "")
	if s.URL != "file:///app/main.js" {
		t.Errorf("URL = %q", s.URL)
	}

	byID, ok := r.byScriptID("42")
	if !ok || byID != s {
		t.Error("byScriptID lookup failed")
	}
	byURL, ok := r.byScriptURL("file:///app/main.js")
	if !ok || byURL != s {
		t.Error("byScriptURL lookup failed")
	}
}

func TestScriptRegistrySyntheticURL(t *testing.T) {
	r := newScriptRegistry()

	s := r.add("7", "", "")
	if s.URL != "VM7" {
		t.Errorf("anonymous script URL = %q, want VM7", s.URL)
	}
	if !isSyntheticURL(s.URL) {
		t.Error("VM7 should be recognized as synthetic")
	}
	if isSyntheticURL("file:///app/main.js") {
		t.Error("real URL misclassified as synthetic")
	}
}

func TestScriptRegistryAllSorted(t *testing.T) {
	r := newScriptRegistry()
	r.add("1", "file:///b.js", "")
	r.add("2", "file:///a.js", "")
	r.add("3", "file:///c.js", "")

	all := r.all()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].URL > all[i].URL {
			t.Fatalf("scripts not sorted by URL: %q before %q", all[i-1].URL, all[i].URL)
		}
	}
}

func TestFixDriveLetter(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`c:\Users\dev\app.js`, `C:\Users\dev\app.js`},
		{`C:\Users\dev\app.js`, `C:\Users\dev\app.js`},
		{"file:///c:/Users/dev/app.js", "file:///C:/Users/dev/app.js"},
		{"file:///C:/Users/dev/app.js", "file:///C:/Users/dev/app.js"},
		{"/usr/src/app.js", "/usr/src/app.js"},
		{"http://localhost/app.js", "http://localhost/app.js"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := fixDriveLetter(tt.in); got != tt.want {
			t.Errorf("fixDriveLetter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScriptRegistryLookupNormalizesDriveLetter(t *testing.T) {
	r := newScriptRegistry()
	r.add("9", `c:\app\main.js`, "")

	if _, ok := r.byScriptURL(`C:\app\main.js`); !ok {
		t.Error("lookup with upper-case drive should hit")
	}
	if _, ok := r.byScriptURL(`c:\app\main.js`); !ok {
		t.Error("lookup with lower-case drive should hit")
	}
}

func TestScriptRegistryClear(t *testing.T) {
	r := newScriptRegistry()
	r.add("1", "file:///a.js", "")
	r.clear()

	if _, ok := r.byScriptID("1"); ok {
		t.Error("script survived clear")
	}
	if len(r.all()) != 0 {
		t.Error("all() not empty after clear")
	}
}
