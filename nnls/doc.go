// Package nnls solves the non-negative least-squares problem
//
//	min ‖A·x − b‖²  subject to  x ≥ 0
//
// with an active-set method driven by the Karush–Kuhn–Tucker
// conditions. The passive set P holds variables free to be positive,
// the active set Z pins variables at zero. Each outer iteration moves
// the variable with the most negative gradient from Z to P, solves the
// unconstrained subproblem restricted to P, and walks back along a
// ratio-test interpolation whenever the subsolution leaves the
// feasible orthant.
//
// Every call ends with a full KKT validation — primal feasibility,
// dual feasibility, multiplier non-negativity, and complementarity —
// reported in Result.KKT, so callers can audit the solution quality
// instead of trusting the convergence flag alone.
//
// Non-convergence after MaxIter outer iterations is not an error: the
// best iterate found is returned with Converged=false.
package nnls
