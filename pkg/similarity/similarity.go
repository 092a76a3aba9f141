// Package similarity scores how close candidate listings are to a seed
// listing, using a vector-space model over their merged text.
package similarity

import (
	"github.com/kareemelharony/samatcher/pkg/catalog"
)

// Vectorizer fits a fresh model on the given document set (seed first) and
// returns one score per document after the first: its similarity to the seed
// document, each in [0, 1].
type Vectorizer interface {
	Score(documents []string) ([]float64, error)
}

// Engine computes per-candidate similarity scores. The vectorization strategy
// is injected at construction; every Compute call fits it fresh on its own
// document set, so analyses are self-contained.
type Engine struct {
	vectorizer Vectorizer
}

// NewEngine returns an engine using the given vectorizer, defaulting to
// TF-IDF with cosine scores when nil.
func NewEngine(v Vectorizer) *Engine {
	if v == nil {
		v = NewTFIDF()
	}
	return &Engine{vectorizer: v}
}

// Compute returns one score per candidate, in input order. Zero candidates
// yield an empty result without fitting a model.
func (e *Engine) Compute(seed catalog.ProductDetails, candidates []catalog.ProductDetails) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}
	documents := make([]string, 0, len(candidates)+1)
	documents = append(documents, seed.MergedText())
	for _, c := range candidates {
		documents = append(documents, c.MergedText())
	}
	return e.vectorizer.Score(documents)
}
