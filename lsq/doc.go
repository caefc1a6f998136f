// Package lsq is the unified least-squares entry point: it estimates
// conditioning, routes to Householder QR, truncated SVD, or NNLS via
// package gate, runs the chosen solver, and returns the solution with
// a Diagnostics record — which method ran, the condition number, the
// wall-clock time of the solve, the residual norm, and the numerical
// rank actually used.
//
// Degraded outcomes never panic or abort: rank deficiency is absorbed
// by truncation and surfaced through Diagnostics.RankUsed, and NNLS
// non-convergence is flagged in Diagnostics.Notes with the best-effort
// solution still returned.
package lsq
