package sim

import (
	"errors"
	"testing"
)

func float64Ptr(v float64) *float64 { return &v }

func validConfig() MinimizerConfig {
	return MinimizerConfig{
		Name:              "m",
		Factors:           DefaultFactors(2),
		Arms:              DefaultArms(),
		ImbalanceMethod:   ImbalanceRange,
		ProbabilityMethod: ProbabilityBestOnly,
		PreferredP:        float64Ptr(0.7),
	}
}

func TestMinimizerConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *MinimizerConfig)
	}{
		{"empty name", func(c *MinimizerConfig) { c.Name = "" }},
		{"no factors", func(c *MinimizerConfig) { c.Factors = nil }},
		{"one arm", func(c *MinimizerConfig) { c.Arms = c.Arms[:1] }},
		{"single-level factor", func(c *MinimizerConfig) { c.Factors = []Factor{{Name: "f", Levels: []string{"A"}}} }},
		{"unknown imbalance method", func(c *MinimizerConfig) { c.ImbalanceMethod = "median" }},
		{"unknown probability method", func(c *MinimizerConfig) { c.ProbabilityMethod = "softmax" }},
		{"best_only without p", func(c *MinimizerConfig) { c.PreferredP = nil }},
		{"p above one", func(c *MinimizerConfig) { c.PreferredP = float64Ptr(1.2) }},
		{"negative p", func(c *MinimizerConfig) { c.PreferredP = float64Ptr(-0.1) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
	pure := validConfig()
	pure.ProbabilityMethod = ProbabilityPureRandom
	pure.PreferredP = nil
	if err := pure.Validate(); err != nil {
		t.Errorf("pure_random without p must be valid, got %v", err)
	}
}

func TestValidMethodNames_Sorted(t *testing.T) {
	got := ValidImbalanceMethodNames()
	want := []string{"range", "sd", "variance"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
	if !IsValidProbabilityMethod("best_only") || IsValidProbabilityMethod("") {
		t.Error("unexpected probability method validity")
	}
}

func TestDefaultMethods_OnlyPureRandomIsFactorInvariant(t *testing.T) {
	for _, m := range DefaultMethods() {
		if m.FactorInvariant != (m.Name == MethodPureRandom) {
			t.Errorf("%s: FactorInvariant=%v", m.Name, m.FactorInvariant)
		}
		if err := m.Config(DefaultFactors(3), DefaultArms()).Validate(); err != nil {
			t.Errorf("%s: %v", m.Name, err)
		}
	}
}

func TestNewMinimizer_InvalidConfig_NotBuilt(t *testing.T) {
	cfg := validConfig()
	cfg.Arms = nil
	if _, err := NewMinimizer(cfg, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestMethodSpec_Validate_PureRandomMustBeFactorInvariant(t *testing.T) {
	// GIVEN a pure random template without FactorInvariant
	spec := MethodSpec{Name: "random", ImbalanceMethod: ImbalanceRange, ProbabilityMethod: ProbabilityPureRandom}

	// WHEN / THEN it is a configuration error
	if err := spec.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	// AND marking it factor invariant makes it valid
	spec.FactorInvariant = true
	if err := spec.Validate(); err != nil {
		t.Errorf("factor-invariant pure random must be valid, got %v", err)
	}

	for _, m := range DefaultMethods() {
		if err := m.Validate(); err != nil {
			t.Errorf("default method %q invalid: %v", m.Name, err)
		}
	}
}
