package spectral

import (
	"github.com/katalvlaran/numlath/kahan"
	"github.com/katalvlaran/numlath/matrix"
)

// Embedding holds spectral-embedding coordinates: Y is n×k with one
// unit-normalized, sign-canonicalized eigenvector per column, and
// Eigenvalues are the matching Laplacian eigenvalues ascending.
type Embedding struct {
	Y           *matrix.Dense
	Eigenvalues []float64
}

// FiedlerVector computes the Fiedler vector of the affinity matrix w:
// the eigenvector of the second-smallest Laplacian eigenvalue. The
// vector is unit-normalized and sign-flipped so its entry sum is
// non-negative.
//
// k is the number of smallest eigenpairs the backend extracts and must
// be at least 2; larger values only affect solver internals, the
// second eigenvector is returned either way.
//
// Errors:
//   - ErrKTooSmall — k < 2; ErrKTooLarge — k > n.
//   - Laplacian and eigensolver errors propagated unchanged.
func FiedlerVector(w *matrix.Dense, k int, opts Options) ([]float64, error) {
	if k < 2 {
		return nil, ErrKTooSmall
	}
	opts.normalize()

	_, vecs, err := smallestPairs(w, k, opts)
	if err != nil {
		return nil, err
	}

	v, err := vecs.Col(1)
	if err != nil {
		return nil, err
	}
	canonicalize(v)

	return v, nil
}

// Embed computes a k-dimensional spectral embedding of the affinity
// matrix w. The k+1 smallest Laplacian eigenpairs are extracted and
// the trivial constant eigenvector is dropped, so for k=2 the first
// output column is the Fiedler vector. Each column is independently
// unit-normalized and sign-canonicalized.
//
// Errors:
//   - ErrKTooSmall — k < 1; ErrKTooLarge — k+1 > n.
func Embed(w *matrix.Dense, k int, opts Options) (Embedding, error) {
	if k < 1 {
		return Embedding{}, ErrKTooSmall
	}
	if err := matrix.ValidateNotNil(w); err != nil {
		return Embedding{}, err
	}
	if k+1 > w.Rows() {
		return Embedding{}, ErrKTooLarge
	}
	opts.normalize()

	vals, vecs, err := smallestPairs(w, k+1, opts)
	if err != nil {
		return Embedding{}, err
	}

	n := w.Rows()
	y, err := matrix.NewDense(n, k)
	if err != nil {
		return Embedding{}, err
	}
	var col []float64
	for j := 0; j < k; j++ {
		if col, err = vecs.Col(j + 1); err != nil {
			return Embedding{}, err
		}
		canonicalize(col)
		if err = y.SetCol(j, col); err != nil {
			return Embedding{}, err
		}
	}

	return Embedding{Y: y, Eigenvalues: vals[1 : k+1]}, nil
}

// ConnectedComponents labels the vertices of the graph whose edges are
// the strictly positive entries of w. Labels are dense, 0-based, and
// assigned in first-visit order of an iterative depth-first search.
func ConnectedComponents(w *matrix.Dense) ([]int, error) {
	if err := matrix.ValidateNotNil(w); err != nil {
		return nil, err
	}
	if err := matrix.ValidateSquare(w); err != nil {
		return nil, err
	}

	n := w.Rows()
	wd := w.Data()
	comp := make([]int, n)
	for i := range comp {
		comp[i] = -1
	}

	cid := 0
	stack := make([]int, 0, n)
	var u int
	for i := 0; i < n; i++ {
		if comp[i] >= 0 {
			continue
		}
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			u = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if comp[u] >= 0 {
				continue
			}
			comp[u] = cid
			for v := 0; v < n; v++ {
				if (wd[u*n+v] > 0 || wd[v*n+u] > 0) && comp[v] < 0 {
					stack = append(stack, v)
				}
			}
		}
		cid++
	}

	return comp, nil
}

// smallestPairs extracts the k smallest Laplacian eigenpairs of w under
// opts.Norm. The random-walk form L_rw = I − D⁻¹·W is asymmetric, so it
// is solved through the similar symmetric form
// L_rw = D^{−1/2}·L_sym·D^{1/2}: the eigenvalues carry over unchanged
// and the eigenvectors map as v_rw = D^{−1/2}·v_sym.
func smallestPairs(w *matrix.Dense, k int, opts Options) ([]float64, *matrix.Dense, error) {
	norm := opts.Norm
	if norm == NormRW {
		norm = NormSym
	}
	l, err := Laplacian(w, norm)
	if err != nil {
		return nil, nil, err
	}
	vals, vecs, err := Eigs(l, k, opts)
	if err != nil {
		return nil, nil, err
	}
	if opts.Norm == NormRW {
		if err = scaleToRandomWalk(vecs, clampedDegrees(symmetrize(w))); err != nil {
			return nil, nil, err
		}
	}

	return vals, vecs, nil
}

// canonicalize scales v to unit norm and flips its sign so the entry
// sum is non-negative.
func canonicalize(v []float64) {
	norm := kahan.Norm(v)
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
	if kahan.Sum(v) < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
}
