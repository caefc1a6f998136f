package nnls

import (
	"math"

	"github.com/katalvlaran/numlath/kahan"
)

// KKTReport is the per-call validation of the four KKT conditions for
// the non-negative least-squares problem:
//
//  1. primal feasibility: x ≥ 0
//  2. dual feasibility:   Aᵀr + λ = 0, with r = b − A·x
//  3. multiplier sign:    λ ≥ 0
//  4. complementarity:    x_i·λ_i = 0
//
// All checks are within the run's tolerance. TotalViolation is the
// worst single violation across the four conditions.
type KKTReport struct {
	// Satisfied reports all four conditions holding within tolerance.
	Satisfied bool
	// PrimalFeasible reports min(x) ≥ −tol.
	PrimalFeasible bool
	// DualFeasible reports ‖Aᵀr + λ‖ ≤ tol.
	DualFeasible bool
	// LambdaNonnegative reports min(λ) ≥ −tol.
	LambdaNonnegative bool
	// ComplementaritySatisfied reports max|x_i·λ_i| ≤ tol.
	ComplementaritySatisfied bool
	// TotalViolation is the largest violation across all conditions.
	TotalViolation float64
	// DualResidualNorm is ‖Aᵀr + λ‖.
	DualResidualNorm float64
	// MinX is the smallest solution component.
	MinX float64
	// MinLambda is the smallest multiplier.
	MinLambda float64
	// MaxComplementarity is the largest |x_i·λ_i|.
	MaxComplementarity float64
}

// validateKKT audits a candidate solution against the KKT conditions.
// grad must be Aᵀ(A·x − b) = −Aᵀr, so the dual residual is λ − grad.
func validateKKT(x, grad, lambda []float64, tol float64) KKTReport {
	n := len(x)
	rep := KKTReport{MinX: math.Inf(1), MinLambda: math.Inf(1)}

	dual := make([]float64, n)
	for i := 0; i < n; i++ {
		if x[i] < rep.MinX {
			rep.MinX = x[i]
		}
		if lambda[i] < rep.MinLambda {
			rep.MinLambda = lambda[i]
		}
		dual[i] = lambda[i] - grad[i]
		if c := math.Abs(x[i] * lambda[i]); c > rep.MaxComplementarity {
			rep.MaxComplementarity = c
		}
	}
	rep.DualResidualNorm = kahan.Norm(dual)

	rep.PrimalFeasible = rep.MinX >= -tol
	rep.DualFeasible = rep.DualResidualNorm <= tol
	rep.LambdaNonnegative = rep.MinLambda >= -tol
	rep.ComplementaritySatisfied = rep.MaxComplementarity <= tol
	rep.Satisfied = rep.PrimalFeasible && rep.DualFeasible &&
		rep.LambdaNonnegative && rep.ComplementaritySatisfied

	rep.TotalViolation = math.Max(
		math.Max(math.Max(0, -rep.MinX), rep.DualResidualNorm),
		math.Max(math.Max(0, -rep.MinLambda), rep.MaxComplementarity),
	)

	return rep
}
