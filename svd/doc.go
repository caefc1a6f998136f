// Package svd implements a truncated singular value decomposition and
// the regularized least-squares solve built on its pseudo-inverse.
//
// The svd package provides:
//
//   - Factor: one-sided Jacobi SVD (high relative accuracy, fully
//     deterministic sweeps), truncated at the numerical rank read from an
//     rcond threshold and optionally capped by a requested rank.
//   - Solve / SolveMatrix: x = V·Σ⁻¹·Uᵀ·b over the retained singular
//     values; rank 0 degenerates to the zero vector with residual ‖b‖.
//   - Values, NumericalRank, ConditionNumber, EffectiveCondition —
//     spectrum inspection helpers used by the quality-gate layer.
//
// Truncation is the regularization: singular values at or below
// rcond·σ_max are discarded, so ill-conditioned systems are solved on
// their well-determined subspace instead of amplifying noise.
package svd
