// Package cg implements the preconditioned conjugate-gradient method
// for symmetric positive-definite systems A·x = b.
//
// The solver works against the matrix.LinearOperator interface, so A
// may be a dense matrix, a CSR matrix, or any matrix-free operator.
// An optional preconditioner M⁻¹ (also a LinearOperator, typically
// from package precond) accelerates convergence on ill-conditioned
// systems without changing the fixed point.
//
// Entry points:
//
//   - Solve       — PCG on a single right-hand side, with per-iteration
//     residual history and breakdown detection.
//   - SolveMatrix — column-by-column solve for a matrix right-hand side.
//   - SolveNormal — CG on the normal equations AᵀA·x = Aᵀb, a matrix-free
//     least-squares path for well-conditioned rectangular systems.
//
// Convergence is declared when ‖r_k‖ ≤ tol·‖b‖. A non-positive
// curvature p·Ap ≤ 0 (A not positive-definite, or numerical collapse)
// stops the iteration and is reported through Result.BreakdownDetected
// rather than as an error: the best iterate so far is still returned.
package cg
