// Package gate estimates conditioning and routes least-squares
// problems to the right solver.
//
// ConditionNumber offers two estimators: the exact σ_max/σ_min ratio
// through the SVD, and a cheaper approximation through the diagonal of
// the Householder R factor. ChooseSolver turns the estimate into a
// routing decision:
//
//   - a non-negativity constraint always routes to NNLS;
//   - a condition number above CondRouteThreshold routes to truncated
//     SVD, which degrades gracefully where QR would amplify noise;
//   - otherwise the caller's preferred unconstrained solver wins
//     (QR by default).
//
// The gate never solves anything itself; package lsq consumes its
// decisions.
package gate
