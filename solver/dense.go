// Package solver implements the Network Solver (spec §4.8): admittance
// assembly, per-island LU factorization and solve, and the major/minor-step
// non-linear iteration loop that drives links to convergence each step.
package solver

import (
	"errors"
)

// Sentinel errors for the dense linear-algebra kernel, grounded on the
// teacher's matrix.Dense conventions (flat row-major storage,
// deterministic no-pivoting Doolittle LU). The at/set/add accessors do not
// check bounds and never return ErrIndexOutOfBounds.
var (
	// ErrInvalidDimensions indicates a non-positive matrix dimension.
	ErrInvalidDimensions = errors.New("solver: dimensions must be > 0")

	// ErrIndexOutOfBounds indicates an out-of-range row or column index.
	ErrIndexOutOfBounds = errors.New("solver: index out of bounds")
)

// dense is a row-major n×n matrix of float64, the backing store for a
// single island's admittance sub-matrix A.
type dense struct {
	n    int
	data []float64
}

// newDense allocates an n×n zeroed dense matrix.
func newDense(n int) (*dense, error) {
	if n <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &dense{n: n, data: make([]float64, n*n)}, nil
}

// at returns data[row][col].
func (d *dense) at(row, col int) float64 {
	return d.data[row*d.n+col]
}

// set writes data[row][col].
func (d *dense) set(row, col int, v float64) {
	d.data[row*d.n+col] = v
}

// add accumulates v into data[row][col], used when stamping multiple
// links' contributions into the same island's A.
func (d *dense) add(row, col int, v float64) {
	d.data[row*d.n+col] += v
}

// luFactorization holds the Doolittle L/U factors of one island's A, plus
// the minimum diagonal magnitude seen in U — the quantity the solver
// compares against MinLinearDiagonal to detect a singular matrix.
type luFactorization struct {
	l, u     *dense
	minDiag  float64
	singular bool
}

// factorize performs Doolittle LU decomposition (A = L*U, unit diagonal on
// L) without pivoting, exactly as the teacher's matrix.LU: deterministic
// over numerically stable, since islands here are small dense blocks built
// from physical admittances that are diagonally dominant by construction
// in every concrete link variant this module ships.
//
// Complexity: Time O(n^3), Space O(n^2).
func factorize(a *dense, minLinearDiagonal float64) *luFactorization {
	n := a.n
	l, _ := newDense(n)
	u, _ := newDense(n)
	for i := 0; i < n; i++ {
		l.set(i, i, 1.0)
	}

	minDiag := -1.0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sum := 0.0
			for k := 0; k < i; k++ {
				sum += l.at(i, k) * u.at(k, j)
			}
			u.set(i, j, a.at(i, j)-sum)
		}
		pivot := u.at(i, i)
		mag := pivot
		if mag < 0 {
			mag = -mag
		}
		if minDiag < 0 || mag < minDiag {
			minDiag = mag
		}
		for j := i + 1; j < n; j++ {
			sum := 0.0
			for k := 0; k < i; k++ {
				sum += l.at(j, k) * u.at(k, i)
			}
			if pivot == 0 {
				l.set(j, i, 0)
				continue
			}
			l.set(j, i, (a.at(j, i)-sum)/pivot)
		}
	}

	return &luFactorization{l: l, u: u, minDiag: minDiag, singular: minDiag < minLinearDiagonal}
}

// solve performs forward then backward substitution to solve A*x = w given
// this factorization's L and U, matching the teacher's Inverse() loop
// structure but against a single right-hand side instead of n unit
// columns.
func (f *luFactorization) solve(w []float64) []float64 {
	n := f.l.n
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for k := 0; k < i; k++ {
			sum += f.l.at(i, k) * y[k]
		}
		y[i] = w[i] - sum
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := 0.0
		for k := i + 1; k < n; k++ {
			sum += f.u.at(i, k) * x[k]
		}
		pivot := f.u.at(i, i)
		if pivot == 0 {
			x[i] = 0
			continue
		}
		x[i] = (y[i] - sum) / pivot
	}
	return x
}
