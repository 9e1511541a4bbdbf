package treecode

import (
	"gonum.org/v1/gonum/mat"
)

// ProbeSVD attempts to factor a as u*vt with rank at most maxRank.
//
// The numerical rank of a is the number of singular values greater than
// tol times the largest one, and at least 1, so a zero block has rank 1.
// When that rank fits in maxRank, u is rows×r (left singular vectors scaled
// by the singular values) and vt is r×cols. Otherwise, or when the SVD does
// not converge, ok is false and no factorization is returned.
func ProbeSVD(a mat.Matrix, maxRank int, tol float64) (u, vt *mat.Dense, ok bool) {
	rows, cols := a.Dims()
	if rows == 0 || cols == 0 || maxRank < 1 {
		return nil, nil, false
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, nil, false
	}
	sigma := svd.Values(nil)

	r := numericalRank(sigma, tol)
	if r > maxRank {
		return nil, nil, false
	}

	var uFull, vFull mat.Dense
	svd.UTo(&uFull)
	svd.VTo(&vFull)

	u = &mat.Dense{}
	u.Mul(uFull.Slice(0, rows, 0, r), mat.NewDiagDense(r, sigma[:r]))
	vt = mat.DenseCopyOf(vFull.Slice(0, cols, 0, r).T())
	return u, vt, true
}

// numericalRank counts singular values above tol*sigma[0]; sigma must be
// sorted descending. The result is at least 1.
func numericalRank(sigma []float64, tol float64) int {
	if len(sigma) == 0 || sigma[0] == 0 {
		return 1
	}
	cutoff := tol * sigma[0]
	r := 0
	for _, s := range sigma {
		if s > cutoff {
			r++
		}
	}
	return max(r, 1)
}
