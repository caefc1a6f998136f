// Package matrix offers the foundation value types shared by every solver
// in numlath.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with O(1) element access, strict
//     shape validation and an optional NaN/Inf rejection policy.
//   - CSR, a compressed sparse row matrix for large mostly-zero inputs;
//     the sparse path is always selected explicitly by constructing a CSR,
//     never inferred from density.
//   - LinearOperator, the single abstraction every solver consumes: dense
//     matrices, sparse matrices and preconditioners all implement it.
//   - Central validators (shape, squareness, symmetry, vector length) so
//     the solver packages fail fast with uniform sentinel errors.
//   - Thin vector helpers (Dot, Norm, AddScaled) used across the solver
//     stack.
//
// All storage is float64. Inputs are treated as immutable snapshots for
// the duration of any operation; no operator owns another's storage.
package matrix
