package homography

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/courtside-data/courtside.report/internal/court"
)

// Estimate computes the least-squares projective transform mapping src
// points to dst points by normalised direct linear transform. At least
// four correspondences are required; with more, the SVD solution
// minimises algebraic error across all of them.
func Estimate(src, dst []court.Point) (Matrix, error) {
	if len(src) != len(dst) {
		return Matrix{}, fmt.Errorf("%w: %d source vs %d target points", ErrNotEstimable, len(src), len(dst))
	}
	if len(src) < 4 {
		return Matrix{}, fmt.Errorf("%w: need at least 4 correspondences, got %d", ErrNotEstimable, len(src))
	}

	srcN, tSrc := normalise(src)
	dstN, tDst := normalise(dst)

	// Each correspondence contributes two rows of the DLT system Ah=0.
	a := mat.NewDense(2*len(srcN), 9, nil)
	for i := range srcN {
		x, y := srcN[i].X, srcN[i].Y
		u, v := dstN[i].X, dstN[i].Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	// Full SVD: with exactly 4 points A is 8x9 and the null vector only
	// appears in the full V.
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return Matrix{}, fmt.Errorf("%w: SVD did not converge", ErrNotEstimable)
	}
	var v mat.Dense
	svd.VTo(&v)

	var hn Matrix
	for i := 0; i < 9; i++ {
		hn[i] = v.At(i, 8)
	}

	h := denormalise(hn, tSrc, tDst)
	if math.Abs(h[8]) < 1e-12 {
		return Matrix{}, fmt.Errorf("%w: degenerate solution", ErrNotEstimable)
	}
	// Fix scale so h33 == 1.
	for i := range h {
		h[i] /= h[8]
	}
	return h, nil
}

// EstimateRobust estimates, trims correspondences whose reprojection
// residual exceeds trim (dst units), and re-fits once on the survivors.
// Tolerates residual outliers among accepted correspondences without a
// full RANSAC loop; the upstream proportion check has already discarded
// gross mismatches.
func EstimateRobust(src, dst []court.Point, trim float64, minPoints int) (Matrix, error) {
	h, err := Estimate(src, dst)
	if err != nil {
		return Matrix{}, err
	}
	if trim <= 0 {
		return h, nil
	}

	var keptSrc, keptDst []court.Point
	for i := range src {
		if h.Project(src[i]).DistanceTo(dst[i]) <= trim {
			keptSrc = append(keptSrc, src[i])
			keptDst = append(keptDst, dst[i])
		}
	}
	if len(keptSrc) == len(src) || len(keptSrc) < minPoints {
		return h, nil
	}

	refit, err := Estimate(keptSrc, keptDst)
	if err != nil {
		// Keep the first fit rather than fail on the refinement step.
		return h, nil
	}
	return refit, nil
}

// normalise applies the Hartley conditioning transform: centroid to the
// origin, mean distance sqrt(2).
func normalise(pts []court.Point) ([]court.Point, Matrix) {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(pts))
	cx /= n
	cy /= n

	var meanDist float64
	for _, p := range pts {
		meanDist += math.Hypot(p.X-cx, p.Y-cy)
	}
	meanDist /= n

	scale := 1.0
	if meanDist > 1e-12 {
		scale = math.Sqrt2 / meanDist
	}

	out := make([]court.Point, len(pts))
	for i, p := range pts {
		out[i] = court.Point{X: (p.X - cx) * scale, Y: (p.Y - cy) * scale}
	}
	t := Matrix{scale, 0, -scale * cx, 0, scale, -scale * cy, 0, 0, 1}
	return out, t
}

// denormalise recovers H = T_dst^-1 * Hn * T_src.
func denormalise(hn, tSrc, tDst Matrix) Matrix {
	tDstInv := invertConditioning(tDst)
	return matMul(matMul(tDstInv, hn), tSrc)
}

// invertConditioning inverts a similarity conditioning matrix of the
// form [s 0 tx; 0 s ty; 0 0 1].
func invertConditioning(t Matrix) Matrix {
	s := t[0]
	return Matrix{1 / s, 0, -t[2] / s, 0, 1 / s, -t[5] / s, 0, 0, 1}
}

func matMul(a, b Matrix) Matrix {
	var out Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[r*3+k] * b[k*3+c]
			}
			out[r*3+c] = sum
		}
	}
	return out
}
