package ssb

import "testing"

func TestCodeFor(t *testing.T) {
	cases := []struct {
		name string
		code string
	}{
		{"housing", "04"},
		{"home", "04"},
		{"food", "01"},
		{"transport", "07"},
		{"transportation", "07"},
		{"HOUSING", "04"},
		{"  Food  ", "01"},
	}
	for _, tc := range cases {
		code, ok := CodeFor(tc.name)
		if !ok {
			t.Errorf("expected %q to resolve", tc.name)
			continue
		}
		if code != tc.code {
			t.Errorf("expected %q -> %s, got %s", tc.name, tc.code, code)
		}
	}
}

func TestCodeForUnknown(t *testing.T) {
	if _, ok := CodeFor("spaceships"); ok {
		t.Error("expected unknown category to not resolve")
	}
}

func TestAliasesSorted(t *testing.T) {
	aliases := Aliases()
	if len(aliases) == 0 {
		t.Fatal("expected a non-empty alias table")
	}
	for i := 1; i < len(aliases); i++ {
		if aliases[i-1].Name >= aliases[i].Name {
			t.Fatalf("aliases not sorted at %d: %s >= %s", i, aliases[i-1].Name, aliases[i].Name)
		}
	}
	for _, a := range aliases {
		if a.Code < "01" || a.Code > "12" {
			t.Errorf("alias %s has out-of-range code %s", a.Name, a.Code)
		}
	}
}
