// register.go wires sim/minimize constructors into the sim package's
// registration variable (NewMinimizerFunc). This init() runs when any package
// imports sim/minimize, breaking the import cycle between sim/ (interface
// owner) and sim/minimize/ (implementation). Production code imports
// sim/minimize directly; test code in package sim uses
// minimize_import_test.go for the blank import.
package minimize

import (
	"math/rand"

	"github.com/pinsleepe/well-random/sim"
)

func init() {
	sim.NewMinimizerFunc = func(cfg sim.MinimizerConfig, rng *rand.Rand) (sim.Minimizer, error) {
		m, err := New(cfg, rng)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}
