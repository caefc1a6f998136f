// Package numlath is a self-contained numerical linear-algebra toolbox:
// stable factorizations, iterative and constrained solvers, and spectral
// graph embeddings — all in deterministic float64.
//
// 🚀 What is numlath?
//
//	A small, dependency-light library that brings together:
//		• Foundation types: dense row-major matrices, CSR sparse storage,
//		  a LinearOperator abstraction shared by all solvers
//		• Kahan: compensated summation, dot products and norms
//		• QR: Householder factorization & rank-aware least-squares solve
//		• SVD: one-sided Jacobi SVD with automatic truncation
//		• CG: preconditioned conjugate gradient for SPD systems
//		• Preconditioners: Jacobi, SSOR(ω), incomplete Cholesky IC(0)
//		• NNLS: active-set non-negative least squares with KKT validation
//		• Quality gate: condition-number estimation & solver routing
//		• Spectral: graph Laplacians, Fiedler vector, k-dim embeddings
//
// ✨ Why choose numlath?
//
//   - Numerically careful – sign-flipped Householder pivots, compensated
//     sums, explicit rank truncation on ill-conditioned systems
//   - Deterministic – fixed loop orders, no global state, seeded probing
//   - Honest failure modes – non-convergence and rank deficiency are
//     reported through diagnostics, never by terminating the host
//   - Pure Go – no cgo, no BLAS/LAPACK bindings
//
// Everything is organized under flat subpackages:
//
//	matrix/   — Dense & CSR storage, LinearOperator, validators
//	kahan/    — compensated Sum / Dot / NormSquared
//	qr/       — Householder QR: Factor, Solve, Rank
//	svd/      — truncated SVD: Factor, Solve, NumericalRank
//	precond/  — Jacobi, SSOR, IC(0) and the Choose heuristic
//	cg/       — preconditioned conjugate gradient
//	nnls/     — non-negative least squares via active sets + KKT
//	gate/     — condition estimation and solver routing policy
//	lsq/      — one-call least-squares entry point with Diagnostics
//	spectral/ — Laplacian, Fiedler vector, spectral embedding
//
// The usual entry points are lsq.Solve for least-squares problems and
// spectral.Embed for graph embeddings; the lower-level packages remain
// public for callers that want a specific algorithm.
//
//	go get github.com/katalvlaran/numlath
package numlath
