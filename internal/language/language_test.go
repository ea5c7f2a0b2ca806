package language

import "testing"

func TestName(t *testing.T) {
	cases := []struct {
		id, ext, want string
	}{
		{"go", "", "Go"},
		{"typescriptreact", "", "TypeScript React"},
		{"", "py", "Python"},
		{"unknown", "rs", "Rust"},
		{"unknown", "unknown", "Plain Text"},
	}
	for _, tc := range cases {
		if got := Name(tc.id, tc.ext); got != tc.want {
			t.Errorf("Name(%q, %q) = %q, want %q", tc.id, tc.ext, got, tc.want)
		}
	}
}

func TestFromExtension(t *testing.T) {
	if got := FromExtension("tsx"); got != "typescriptreact" {
		t.Fatalf("tsx = %q", got)
	}
	if got := FromExtension("zig"); got != DefaultID {
		t.Fatalf("unknown extension = %q", got)
	}
}

func TestInstructions(t *testing.T) {
	if Instructions("go") == "" {
		t.Fatalf("expected instructions for go")
	}
	if Instructions("yaml") != "" {
		t.Fatalf("unexpected instructions for yaml")
	}
}

func TestDefaultInstructionsIsACopy(t *testing.T) {
	m := DefaultInstructions()
	m["go"] = "mutated"
	if Instructions("go") == "mutated" {
		t.Fatalf("DefaultInstructions shares state with the package map")
	}
}
