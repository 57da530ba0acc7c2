package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Night" || names[1] != "Day" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Night Day Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Night"); got != "Day" {
		t.Fatalf("NextTheme(Night) = %q, want Day", got)
	}
	if got := NextTheme("Slate"); got != "Night" {
		t.Fatalf("NextTheme(Slate) = %q, want Night", got)
	}
	if got := NextTheme("Unknown"); got != "Night" {
		t.Fatalf("NextTheme(Unknown) = %q, want Night", got)
	}
}

func TestGetTheme(t *testing.T) {
	for _, name := range ThemeNames() {
		if got := GetTheme(name); got.Name != name {
			t.Fatalf("GetTheme(%s).Name = %q", name, got.Name)
		}
	}
	if unknown := GetTheme("Dracula"); unknown.Name != "Night" {
		t.Fatalf("GetTheme(Dracula).Name = %q, want Night (fallback)", unknown.Name)
	}
}

func TestNightThemeGridColors(t *testing.T) {
	th := GetTheme("Night")
	if th.DeadCell != "#2c2c2c" {
		t.Fatalf("DeadCell = %q, want #2c2c2c", th.DeadCell)
	}
	if th.EditableCell != "#434343" {
		t.Fatalf("EditableCell = %q, want #434343", th.EditableCell)
	}
}

func TestThemesDistinguishEditableCells(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		if th.DeadCell == th.EditableCell {
			t.Fatalf("%s: editable and confirmed dead cells share %s", name, th.DeadCell)
		}
		if th.Cursor == "" || th.CursorAlive == "" {
			t.Fatalf("%s: cursor colors missing", name)
		}
	}
}
