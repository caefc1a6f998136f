// Package qr implements the Householder QR factorization and a
// rank-aware least-squares solver built on it.
//
// The qr package provides:
//
//   - Factor: orthogonal factorization A = Q·R in Reduced or Full mode,
//     via sign-flipped Householder reflections (no normal equations, no
//     catastrophic cancellation on the pivot).
//   - Solve / SolveMatrix: least-squares for m ≥ n with numerical-rank
//     truncation from the R diagonal, and the minimum-norm solution for
//     underdetermined systems via QR of Aᵀ.
//   - Rank: numerical rank from |diag(R)| against an rcond threshold.
//
// Rank deficiency is never fatal: trailing unknowns are zero-padded and
// the condition is visible through Rank and the caller's diagnostics.
// Empty or nil inputs are configuration errors and fail fast.
package qr
