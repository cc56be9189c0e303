package netsim

// Default tolerances and caps recognized by Config (spec §6). Package node,
// link, and island callers without their own opinion on precision use these.
const (
	// DefaultConvergenceTolerance is the default per-node successive-change
	// threshold for the minor-step loop.
	DefaultConvergenceTolerance = 1e-3

	// DefaultMinLinearDiagonal is the default singular-matrix detection
	// threshold during island factorization.
	DefaultMinLinearDiagonal = 1e-3

	// DefaultMaxMinorSteps is the default non-linear iteration cap per
	// major step.
	DefaultMaxMinorSteps = 20

	// Epsilon is the default tolerance used to decide whether an
	// admittance-matrix entry changed enough to flag admittance-dirty, and
	// whether an off-diagonal entry is non-zero for island decomposition
	// (spec §4.7, §4.2).
	Epsilon = 1e-12
)
