package domain

import (
	"strings"
	"testing"
)

func TestNewInitiativeID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid simple", "init-1", false},
		{"valid with underscores", "ground_systems", false},
		{"valid alphanumeric", "a1b2c3", false},
		{"surrounding whitespace trimmed", "  init-1  ", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"leading hyphen", "-init", true},
		{"contains space", "init 1", true},
		{"contains slash", "init/1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewInitiativeID(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewInitiativeID(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && id.String() != strings.TrimSpace(tt.value) {
				t.Errorf("String() = %q", id.String())
			}
		})
	}
}

func TestInitiativeID_Equals(t *testing.T) {
	a := MustInitiativeID("init-1")
	b := MustInitiativeID("init-1")
	c := MustInitiativeID("init-2")
	if !a.Equals(b) {
		t.Error("identical IDs should be equal")
	}
	if a.Equals(c) {
		t.Error("different IDs should not be equal")
	}
	if a.IsZero() {
		t.Error("constructed ID should not be zero")
	}
	if !(InitiativeID{}).IsZero() {
		t.Error("zero value should report IsZero")
	}
}

func TestNewTaskID(t *testing.T) {
	if _, err := NewTaskID("task-42"); err != nil {
		t.Fatalf("valid task ID rejected: %v", err)
	}
	if _, err := NewTaskID(""); err == nil {
		t.Fatal("empty task ID accepted")
	}
	if _, err := NewTaskID("_leading"); err == nil {
		t.Fatal("leading underscore accepted")
	}
}

func TestNewActionID(t *testing.T) {
	id, err := NewActionID("act-7")
	if err != nil {
		t.Fatalf("valid action ID rejected: %v", err)
	}
	if id.String() != "act-7" {
		t.Errorf("String() = %q", id.String())
	}
	if _, err := NewActionID("bad id"); err == nil {
		t.Fatal("action ID with space accepted")
	}
}

func TestMustTaskID_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustTaskID("")
}
