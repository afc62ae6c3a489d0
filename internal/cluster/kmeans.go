package cluster

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// KMeansOptions controls one k-means fit.
type KMeansOptions struct {
	K         int
	Seed      uint64
	MaxIter   int
	NInit     int
	Tolerance float64
}

// Model is a fitted set of centroids over a vocabulary.
type Model struct {
	Vocabulary []string
	Centroids  [][]float64
	Assigned   []int // cluster per input row
	Inertia    float64
	Iterations int
}

// K returns the number of centroids.
func (m *Model) K() int { return len(m.Centroids) }

// Nearest returns the closest centroid to v. Ties go to the lower index.
func (m *Model) Nearest(v SparseVector) (int, float64) {
	return nearest(v, m.Centroids, centroidNorms(m.Centroids))
}

// TopTerms returns the n heaviest vocabulary terms of centroid c.
func (m *Model) TopTerms(c, n int) []string {
	if c < 0 || c >= len(m.Centroids) {
		return nil
	}
	idx := make([]int, len(m.Vocabulary))
	for i := range idx {
		idx[i] = i
	}
	w := m.Centroids[c]
	sort.SliceStable(idx, func(a, b int) bool { return w[idx[a]] > w[idx[b]] })
	out := make([]string, 0, n)
	for _, i := range idx {
		if len(out) == n || w[i] <= 0 {
			break
		}
		out = append(out, m.Vocabulary[i])
	}
	return out
}

// FitKMeans runs NInit seeded k-means++ fits over rows and keeps the one
// with the lowest inertia. The first fit wins ties.
func FitKMeans(rows []SparseVector, dim int, opts KMeansOptions) *Model {
	if opts.NInit <= 0 {
		opts.NInit = 1
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = 300
	}

	var best *Model
	for run := 0; run < opts.NInit; run++ {
		rng := rand.New(rand.NewPCG(opts.Seed, uint64(run)))
		m := lloyd(rows, dim, opts, rng)
		if best == nil || m.Inertia < best.Inertia {
			best = m
		}
	}
	return best
}

func lloyd(rows []SparseVector, dim int, opts KMeansOptions, rng *rand.Rand) *Model {
	centroids := seedPlusPlus(rows, dim, opts.K, rng)
	labels := make([]int, len(rows))
	dists := make([]float64, len(rows))

	iter := 0
	for iter < opts.MaxIter {
		iter++
		assign(rows, centroids, labels, dists)

		next := recompute(rows, dim, len(centroids), labels, dists)
		shift := 0.0
		for c := range centroids {
			d := floats.Distance(centroids[c], next[c], 2)
			shift += d * d
		}
		centroids = next
		if shift <= opts.Tolerance {
			break
		}
	}

	inertia := assign(rows, centroids, labels, dists)
	return &Model{Centroids: centroids, Assigned: labels, Inertia: inertia, Iterations: iter}
}

// seedPlusPlus picks k initial centroids from rows with D² weighting.
func seedPlusPlus(rows []SparseVector, dim, k int, rng *rand.Rand) [][]float64 {
	n := len(rows)
	centroids := make([][]float64, 0, k)
	chosen := make([]bool, n)

	first := rng.IntN(n)
	chosen[first] = true
	centroids = append(centroids, rows[first].dense(dim))

	closest := make([]float64, n)
	for i := range rows {
		closest[i] = sqDist(rows[i], centroids[0], floats.Dot(centroids[0], centroids[0]))
	}

	for len(centroids) < k {
		total := floats.Sum(closest)
		pick := -1
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range closest {
				acc += d
				if acc >= target && d > 0 {
					pick = i
					break
				}
			}
		}
		if pick < 0 {
			// every remaining point sits on a centroid
			for i := range rows {
				if !chosen[i] {
					pick = i
					break
				}
			}
		}
		chosen[pick] = true
		c := rows[pick].dense(dim)
		centroids = append(centroids, c)
		cn := floats.Dot(c, c)
		for i := range rows {
			if d := sqDist(rows[i], c, cn); d < closest[i] {
				closest[i] = d
			}
		}
	}
	return centroids
}

// assign writes the nearest centroid and its distance for every row and
// returns the total squared distance.
func assign(rows []SparseVector, centroids [][]float64, labels []int, dists []float64) float64 {
	norms := centroidNorms(centroids)
	total := 0.0
	for i, r := range rows {
		labels[i], dists[i] = nearest(r, centroids, norms)
		total += dists[i]
	}
	return total
}

// recompute averages the members of every cluster. An empty cluster takes
// the row farthest from its current centroid.
func recompute(rows []SparseVector, dim, k int, labels []int, dists []float64) [][]float64 {
	next := make([][]float64, k)
	counts := make([]int, k)
	for c := range next {
		next[c] = make([]float64, dim)
	}
	for i, r := range rows {
		c := next[labels[i]]
		for j, idx := range r.Idx {
			c[idx] += r.Val[j]
		}
		counts[labels[i]]++
	}

	taken := make(map[int]bool)
	for c := range next {
		if counts[c] > 0 {
			floats.Scale(1/float64(counts[c]), next[c])
			continue
		}
		far := -1
		for i := range rows {
			if taken[i] {
				continue
			}
			if far < 0 || dists[i] > dists[far] {
				far = i
			}
		}
		if far >= 0 {
			taken[far] = true
			next[c] = rows[far].dense(dim)
		}
	}
	return next
}

func centroidNorms(centroids [][]float64) []float64 {
	out := make([]float64, len(centroids))
	for i, c := range centroids {
		out[i] = floats.Dot(c, c)
	}
	return out
}

func nearest(v SparseVector, centroids [][]float64, norms []float64) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for c, cent := range centroids {
		if d := sqDist(v, cent, norms[c]); d < bestD {
			best, bestD = c, d
		}
	}
	return best, bestD
}

// sqDist is |v - c|² for sparse v and dense c with precomputed |c|².
func sqDist(v SparseVector, c []float64, cNorm2 float64) float64 {
	dot := 0.0
	for j, idx := range v.Idx {
		dot += v.Val[j] * c[idx]
	}
	d := v.Norm2() + cNorm2 - 2*dot
	if d < 0 {
		return 0
	}
	return d
}
