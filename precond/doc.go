// Package precond builds preconditioner operators for the iterative
// solvers: approximations of A⁻¹ cheap enough to apply every iteration.
//
// The precond package provides:
//
//   - NewJacobi — inverse-diagonal scaling; near-zero diagonal entries
//     are clamped to 1 so the operator is always well-defined.
//   - NewSSOR — symmetric successive over-relaxation M⁻¹ via two
//     triangular solves with (D+ωL) and (D+ωU), 0 < ω < 2.
//   - NewIC0 — incomplete Cholesky restricted to A's sparsity pattern;
//     non-symmetric input or a failed factorization falls back to Jacobi
//     (logged, non-fatal, visible through Kind).
//   - Choose — the routing heuristic: diagonal-dominant ⇒ Jacobi,
//     symmetric/positive-diagonal/sparse ⇒ IC(0), otherwise SSOR(1).
//
// Every preconditioner is a matrix.LinearOperator constructed from a
// snapshot of A and immutable thereafter; it never aliases A's storage.
package precond
