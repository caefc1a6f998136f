// Package spectral builds graph Laplacians and extracts their small
// eigenpairs: the Fiedler vector for bisection and k-dimensional
// spectral embeddings for clustering.
//
// Laplacian construction accepts an affinity matrix W (symmetrized as
// (W+Wᵀ)/2 when needed, degrees clamped away from zero) in three
// normalizations:
//
//	NormNone  L = D − W
//	NormSym   L = I − D^{−1/2}·W·D^{−1/2}
//	NormRW    L = I − D^{−1}·W
//
// Eigenpairs come from one of two backends, selected explicitly by the
// caller: a dense Jacobi-rotation eigensolver for *matrix.Dense and a
// Lanczos iteration with full reorthogonalization for sparse or
// matrix-free operators. The Lanczos start vector is drawn from the
// caller-fixed Options.Seed, which is the reproducibility contract:
// identical inputs and an identical seed give identical embeddings.
//
// The Fiedler vector and every embedding column are unit-normalized
// and sign-canonicalized (entry sum non-negative) so downstream
// consumers see deterministic orientations.
package spectral
