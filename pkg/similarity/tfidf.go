package similarity

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// TFIDF is a word unigram + bigram TF-IDF vectorizer with cosine scoring.
// It holds no fitted state; Score builds vocabulary and IDF values from the
// documents it is handed and discards them afterwards.
type TFIDF struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

func NewTFIDF() *TFIDF {
	return &TFIDF{
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+`),
		stopwords:    englishStopwords(),
	}
}

// Score fits on documents (seed at index 0) and returns the cosine similarity
// of every later document against the seed. Documents that produce no terms
// (empty, or stop words only) score 0 against everything.
func (t *TFIDF) Score(documents []string) ([]float64, error) {
	if len(documents) < 2 {
		return []float64{}, nil
	}

	docTerms := make([][]string, len(documents))
	df := make(map[string]int)
	for i, doc := range documents {
		terms := t.terms(doc)
		docTerms[i] = terms
		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	scores := make([]float64, len(documents)-1)
	if len(df) == 0 {
		return scores, nil
	}

	// Stable vocabulary ordering
	vocabTerms := make([]string, 0, len(df))
	for term := range df {
		vocabTerms = append(vocabTerms, term)
	}
	sort.Strings(vocabTerms)

	vocab := make(map[string]int, len(vocabTerms))
	idf := make([]float64, len(vocabTerms))
	n := float64(len(documents))
	for i, term := range vocabTerms {
		vocab[term] = i
		// Smoothed IDF
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	seedVec := t.vector(docTerms[0], vocab, idf)
	for i := 1; i < len(documents); i++ {
		s := dot(seedVec, t.vector(docTerms[i], vocab, idf))
		// Guard against float jitter at the boundaries.
		if s < 0 {
			s = 0
		} else if s > 1 {
			s = 1
		}
		scores[i-1] = s
	}
	return scores, nil
}

// terms tokenizes, drops stop words, then emits unigrams plus bigrams formed
// over the filtered token sequence.
func (t *TFIDF) terms(doc string) []string {
	raw := t.tokenPattern.FindAllString(strings.ToLower(doc), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, isStop := t.stopwords[tok]; isStop {
			continue
		}
		tokens = append(tokens, tok)
	}
	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// vector builds the L2-normalized TF-IDF vector for one document.
func (t *TFIDF) vector(terms []string, vocab map[string]int, idf []float64) []float64 {
	vec := make([]float64, len(vocab))
	if len(terms) == 0 {
		return vec
	}
	tf := make(map[int]int, len(terms))
	for _, term := range terms {
		if idx, ok := vocab[term]; ok {
			tf[idx]++
		}
	}
	total := float64(len(terms))
	norm := 0.0
	for idx, count := range tf {
		v := float64(count) / total * idf[idx]
		vec[idx] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for idx := range tf {
			vec[idx] /= norm
		}
	}
	return vec
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
