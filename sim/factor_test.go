package sim

import (
	"errors"
	"testing"
)

func TestDefaultFactors_BinaryNamedInOrder(t *testing.T) {
	factors := DefaultFactors(3)
	if len(factors) != 3 {
		t.Fatalf("expected 3 factors, got %d", len(factors))
	}
	for i, f := range factors {
		want := []string{"Factor1", "Factor2", "Factor3"}[i]
		if f.Name != want {
			t.Errorf("factor %d: got name %q, want %q", i, f.Name, want)
		}
		if f.NumLevels() != 2 || f.Levels[0] != "A" || f.Levels[1] != "B" {
			t.Errorf("factor %d: unexpected levels %v", i, f.Levels)
		}
	}
	if len(DefaultFactors(0)) != 0 {
		t.Error("expected no factors for n=0")
	}
}

func TestDefaultArms(t *testing.T) {
	arms := DefaultArms()
	if len(arms) != 2 || arms[0].Name != "Arm1" || arms[1].Name != "Arm2" {
		t.Errorf("unexpected arms %v", arms)
	}
}

func TestNewFactor(t *testing.T) {
	f, err := NewFactor("sex", "F", "M")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Name != "sex" || f.NumLevels() != 2 {
		t.Errorf("unexpected factor %+v", f)
	}

	for _, tc := range []struct {
		name   string
		levels []string
	}{
		{"", []string{"a", "b"}},
		{"site", []string{"only"}},
		{"site", []string{"x", "x"}},
	} {
		if _, err := NewFactor(tc.name, tc.levels...); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("NewFactor(%q, %v): expected ErrInvalidConfig, got %v", tc.name, tc.levels, err)
		}
	}
}
