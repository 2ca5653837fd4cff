package sim

import "fmt"

// scriptedMinimizer assigns arms from a fixed script, cycling when exhausted.
// It lets tests control assignments exactly without depending on sim/minimize.
type scriptedMinimizer struct {
	name    string
	factors []Factor
	arms    []Arm
	script  []int
	failAt  int // 1-based participant number that returns an error; 0 = never
	calls   int
}

func newScriptedMinimizer(name string, nFactors int, script ...int) *scriptedMinimizer {
	return &scriptedMinimizer{name: name, factors: DefaultFactors(nFactors), arms: DefaultArms(), script: script}
}

func (m *scriptedMinimizer) Name() string      { return m.name }
func (m *scriptedMinimizer) Factors() []Factor { return m.factors }
func (m *scriptedMinimizer) Arms() []Arm       { return m.arms }

func (m *scriptedMinimizer) Assign(levels []int) (int, float64, error) {
	m.calls++
	if m.failAt > 0 && m.calls == m.failAt {
		return 0, 0, fmt.Errorf("scripted failure at participant %d", m.calls)
	}
	arm := m.script[(m.calls-1)%len(m.script)]
	return arm, 0.5, nil
}

// records builds assignment records for a single binary factor from
// (level, arm) pairs.
func records(pairs ...[2]int) []AssignmentRecord {
	out := make([]AssignmentRecord, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, AssignmentRecord{Levels: []int{p[0]}, Arm: p[1], Probability: 0.5})
	}
	return out
}
