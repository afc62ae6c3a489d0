package cluster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"go-jobmarket-pipeline/internal/nlp"
)

// SparseVector holds the non-zero weights of one row, indices ascending.
type SparseVector struct {
	Idx []int
	Val []float64
}

// Norm2 returns the squared euclidean norm.
func (v SparseVector) Norm2() float64 {
	return floats.Dot(v.Val, v.Val)
}

// Empty reports whether the row has no informative token.
func (v SparseVector) Empty() bool { return len(v.Idx) == 0 }

// dense scatters v into a zeroed slice of length dim.
func (v SparseVector) dense(dim int) []float64 {
	out := make([]float64, dim)
	for i, j := range v.Idx {
		out[j] = v.Val[i]
	}
	return out
}

// Matrix is a fitted TF-IDF document-term matrix.
type Matrix struct {
	Vocabulary []string
	IDF        []float64
	Rows       []SparseVector
}

// Informative counts rows with at least one non-stopword token.
func (m *Matrix) Informative() int {
	n := 0
	for _, r := range m.Rows {
		if !r.Empty() {
			n++
		}
	}
	return n
}

// Vectorizer turns titles into L2-normalized TF-IDF unigram vectors.
type Vectorizer struct {
	Stopwords      *nlp.StopwordSet
	MinTokenLength int
}

// Tokens returns the lowercased informative tokens of one title.
func (v *Vectorizer) Tokens(title string) []string {
	minLen := v.MinTokenLength
	if minLen <= 0 {
		minLen = 2
	}
	return v.Stopwords.Filter(nlp.Tokenize(title, minLen))
}

// FitTransform learns the vocabulary and idf weights of docs and returns
// their vectors, one row per doc in input order.
func (v *Vectorizer) FitTransform(docs []string) *Matrix {
	tokenized := make([][]string, len(docs))
	df := make(map[string]int)
	for i, d := range docs {
		toks := v.Tokens(d)
		tokenized[i] = toks
		seen := make(map[string]bool, len(toks))
		for _, t := range toks {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	vocab := make([]string, 0, len(df))
	for t := range df {
		vocab = append(vocab, t)
	}
	sort.Strings(vocab)
	index := make(map[string]int, len(vocab))
	for i, t := range vocab {
		index[t] = i
	}

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for i, t := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	rows := make([]SparseVector, len(docs))
	for i, toks := range tokenized {
		tf := make(map[int]float64, len(toks))
		for _, t := range toks {
			tf[index[t]]++
		}
		row := SparseVector{Idx: make([]int, 0, len(tf)), Val: make([]float64, 0, len(tf))}
		for j := range tf {
			row.Idx = append(row.Idx, j)
		}
		sort.Ints(row.Idx)
		for _, j := range row.Idx {
			row.Val = append(row.Val, tf[j]*idf[j])
		}
		if norm := floats.Norm(row.Val, 2); norm > 0 {
			floats.Scale(1/norm, row.Val)
		}
		rows[i] = row
	}

	return &Matrix{Vocabulary: vocab, IDF: idf, Rows: rows}
}
