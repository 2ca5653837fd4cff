package sim_test

// Blank import triggers sim/minimize's init(), which registers NewMinimizerFunc.
// This allows package sim's internal test files to build minimizers without
// directly importing sim/minimize (which would create an import cycle).
import _ "github.com/pinsleepe/well-random/sim/minimize"
