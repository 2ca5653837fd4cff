package sim

import (
	"fmt"
	"math/rand"
	"sort"
)

// Minimizer assigns participants to arms. Implementations keep per-factor,
// per-arm counters that advance with every Assign call, so one instance must
// not be shared across independent runs.
type Minimizer interface {
	// Name returns the method name the minimizer was configured with.
	Name() string
	// Factors returns the ordered factors participants are stratified by.
	Factors() []Factor
	// Arms returns the ordered arms participants are assigned to.
	Arms() []Arm
	// Assign returns the arm index chosen for a participant with the given
	// level index per factor, and the probability with which it was chosen.
	Assign(levels []int) (arm int, probability float64, err error)
}

// Imbalance scoring methods.
const (
	ImbalanceRange    = "range"
	ImbalanceSD       = "sd"
	ImbalanceVariance = "variance"
)

// Probability methods.
const (
	ProbabilityBestOnly   = "best_only"
	ProbabilityPureRandom = "pure_random"
)

// validImbalanceMethods maps imbalance scoring names to validity. Unexported to prevent mutation.
var validImbalanceMethods = map[string]bool{
	ImbalanceRange:    true,
	ImbalanceSD:       true,
	ImbalanceVariance: true,
}

// validProbabilityMethods maps probability method names to validity.
var validProbabilityMethods = map[string]bool{
	ProbabilityBestOnly:   true,
	ProbabilityPureRandom: true,
}

// IsValidImbalanceMethod returns true if name is a recognized imbalance scoring method.
func IsValidImbalanceMethod(name string) bool { return validImbalanceMethods[name] }

// IsValidProbabilityMethod returns true if name is a recognized probability method.
func IsValidProbabilityMethod(name string) bool { return validProbabilityMethods[name] }

// ValidImbalanceMethodNames returns sorted imbalance scoring method names.
func ValidImbalanceMethodNames() []string { return validNamesList(validImbalanceMethods) }

// ValidProbabilityMethodNames returns sorted probability method names.
func ValidProbabilityMethodNames() []string { return validNamesList(validProbabilityMethods) }

func validNamesList(m map[string]bool) []string {
	names := make([]string, 0, len(m))
	for name, ok := range m {
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// MinimizerConfig describes one allocation method under comparison.
// PreferredP is required for best_only and ignored for pure_random.
type MinimizerConfig struct {
	Name              string
	Factors           []Factor
	Arms              []Arm
	ImbalanceMethod   string
	ProbabilityMethod string
	PreferredP        *float64
}

// Validate checks that the configuration can build a Minimizer.
func (c MinimizerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("minimizer name is empty: %w", ErrInvalidConfig)
	}
	if len(c.Factors) == 0 {
		return fmt.Errorf("minimizer %q has no factors: %w", c.Name, ErrInvalidConfig)
	}
	if len(c.Arms) < 2 {
		return fmt.Errorf("minimizer %q needs at least 2 arms, got %d: %w", c.Name, len(c.Arms), ErrInvalidConfig)
	}
	for _, f := range c.Factors {
		if f.NumLevels() < 2 {
			return fmt.Errorf("minimizer %q: factor %q needs at least 2 levels: %w", c.Name, f.Name, ErrInvalidConfig)
		}
	}
	if !IsValidImbalanceMethod(c.ImbalanceMethod) {
		return fmt.Errorf("minimizer %q: unknown imbalance method %q (valid: %v): %w",
			c.Name, c.ImbalanceMethod, ValidImbalanceMethodNames(), ErrInvalidConfig)
	}
	if !IsValidProbabilityMethod(c.ProbabilityMethod) {
		return fmt.Errorf("minimizer %q: unknown probability method %q (valid: %v): %w",
			c.Name, c.ProbabilityMethod, ValidProbabilityMethodNames(), ErrInvalidConfig)
	}
	if c.ProbabilityMethod == ProbabilityBestOnly && c.PreferredP == nil {
		return fmt.Errorf("minimizer %q: best_only requires a preferred probability: %w", c.Name, ErrInvalidConfig)
	}
	if c.PreferredP != nil && (*c.PreferredP < 0 || *c.PreferredP > 1) {
		return fmt.Errorf("minimizer %q: preferred probability must be in [0,1], got %f: %w", c.Name, *c.PreferredP, ErrInvalidConfig)
	}
	return nil
}

// NewMinimizerFunc builds a Minimizer from a validated configuration. The
// minimizer draws its allocation randomness from rng.
// Set by sim/minimize's init(); nil until that package is imported.
var NewMinimizerFunc func(cfg MinimizerConfig, rng *rand.Rand) (Minimizer, error)

// NewMinimizer validates cfg and builds a fresh Minimizer through NewMinimizerFunc.
// A nil rng is replaced by a clock-seeded one.
func NewMinimizer(cfg MinimizerConfig, rng *rand.Rand) (Minimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if NewMinimizerFunc == nil {
		return nil, fmt.Errorf("no minimizer implementation registered (import sim/minimize)")
	}
	if rng == nil {
		rng = UnseededRNG(cfg.Name)
	}
	return NewMinimizerFunc(cfg, rng)
}

// MethodSpec is an allocation method template, independent of factor count.
// FactorInvariant methods produce results that do not depend on the number of
// factors, so the grid runs them only at a factor count of 1.
type MethodSpec struct {
	Name              string   `yaml:"name"`
	ImbalanceMethod   string   `yaml:"imbalance_method"`
	ProbabilityMethod string   `yaml:"probability_method"`
	PreferredP        *float64 `yaml:"preferred_p"`
	FactorInvariant   bool     `yaml:"factor_invariant"`
}

// Config instantiates the template for the given factors and arms.
func (m MethodSpec) Config(factors []Factor, arms []Arm) MinimizerConfig {
	return MinimizerConfig{
		Name:              m.Name,
		Factors:           factors,
		Arms:              arms,
		ImbalanceMethod:   m.ImbalanceMethod,
		ProbabilityMethod: m.ProbabilityMethod,
		PreferredP:        m.PreferredP,
	}
}

// Validate checks the template against a single binary factor; factor count
// does not affect method validity. Pure random allocation ignores the factors,
// so it must be FactorInvariant to be run once per simulation index.
func (m MethodSpec) Validate() error {
	if err := m.Config(DefaultFactors(1), DefaultArms()).Validate(); err != nil {
		return err
	}
	if m.ProbabilityMethod == ProbabilityPureRandom && !m.FactorInvariant {
		return fmt.Errorf("method %q: pure_random requires factor_invariant: true: %w", m.Name, ErrInvalidConfig)
	}
	return nil
}

// Default method names.
const (
	MethodMinimizerP07 = "minimizer_p07"
	MethodMinimizerP10 = "minimizer_p10"
	MethodPureRandom   = "pure_random"
)

// DefaultMethods returns the three methods of the Pocock & Simon (1975)
// comparison: range-scored minimization choosing the preferred arm with
// p = 0.7 and p = 1.0, and pure random allocation.
func DefaultMethods() []MethodSpec {
	p07, p10 := 0.7, 1.0
	return []MethodSpec{
		{Name: MethodMinimizerP07, ImbalanceMethod: ImbalanceRange, ProbabilityMethod: ProbabilityBestOnly, PreferredP: &p07},
		{Name: MethodMinimizerP10, ImbalanceMethod: ImbalanceRange, ProbabilityMethod: ProbabilityBestOnly, PreferredP: &p10},
		{Name: MethodPureRandom, ImbalanceMethod: ImbalanceRange, ProbabilityMethod: ProbabilityPureRandom, FactorInvariant: true},
	}
}
