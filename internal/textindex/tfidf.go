// Package textindex provides a TF-IDF vector space over card oracle
// text with cosine similarity scoring.
package textindex

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
)

// ErrNotFitted is returned when vectors are requested before Fit.
var ErrNotFitted = errors.New("text index has not been fitted")

// Document is one (card name, oracle text) input to Fit.
type Document struct {
	Name string
	Text string
}

// Vector is a sparse L2-normalized term-weight vector, keyed by term
// dimension. Cards with empty oracle text have an empty vector.
type Vector map[int]float64

// Index is an immutable fitted TF-IDF vector space. Fitting builds a
// fresh Index; callers that refit must swap the whole Index atomically
// so in-flight queries keep a consistent snapshot.
type Index struct {
	vocab   map[string]int
	idf     []float64
	vectors map[string]Vector
}

// Fit builds the vector space over all non-empty document texts.
// Terms are lower-cased, tokenized on non-letter boundaries, and
// stop-word filtered. IDF uses smoothed weighting, and every document
// vector is L2-normalized.
func Fit(docs []Document) *Index {
	tokenized := make(map[string][]string, len(docs))
	docFreq := make(map[string]int)
	nonEmpty := 0

	for _, doc := range docs {
		tokens := Tokenize(doc.Text)
		tokenized[doc.Name] = tokens
		if len(tokens) == 0 {
			continue
		}
		nonEmpty++
		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			if !seen[tok] {
				seen[tok] = true
				docFreq[tok]++
			}
		}
	}

	// Dimensions are assigned in lexicographic term order so the same
	// corpus always produces the same vector space.
	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(docFreq))
	idf := make([]float64, 0, len(docFreq))
	for _, term := range terms {
		vocab[term] = len(idf)
		// Smoothed IDF so terms present in every document still carry
		// a small positive weight.
		idf = append(idf, math.Log(float64(1+nonEmpty)/float64(1+docFreq[term]))+1)
	}

	ix := &Index{
		vocab:   vocab,
		idf:     idf,
		vectors: make(map[string]Vector, len(docs)),
	}
	for name, tokens := range tokenized {
		ix.vectors[name] = ix.embed(tokens)
	}
	return ix
}

// embed converts a token stream to a normalized TF-IDF vector.
func (ix *Index) embed(tokens []string) Vector {
	vec := make(Vector)
	for _, tok := range tokens {
		dim, ok := ix.vocab[tok]
		if !ok {
			continue
		}
		vec[dim]++
	}
	dims := sortedDims(vec)
	var norm float64
	for _, dim := range dims {
		vec[dim] *= ix.idf[dim]
		norm += vec[dim] * vec[dim]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for _, dim := range dims {
			vec[dim] /= norm
		}
	}
	return vec
}

// sortedDims returns a vector's dimensions in increasing order.
// Floating-point sums over a vector must always run in this order, so
// identical inputs produce bit-identical results; ranging over the map
// directly would let iteration order perturb the low bits.
func sortedDims(v Vector) []int {
	dims := make([]int, 0, len(v))
	for dim := range v {
		dims = append(dims, dim)
	}
	sort.Ints(dims)
	return dims
}

// Vector returns the fitted vector for a card. Cards with empty or
// whitespace-only text get an empty vector; unknown cards get nil.
// Returns ErrNotFitted on a nil index.
func (ix *Index) Vector(name string) (Vector, error) {
	if ix == nil {
		return nil, ErrNotFitted
	}
	return ix.vectors[name], nil
}

// Dimensions returns the vocabulary size of the fitted space.
func (ix *Index) Dimensions() int {
	if ix == nil {
		return 0
	}
	return len(ix.vocab)
}

// Cosine returns the cosine similarity of two vectors in [0, 1].
// Returns 0 when either vector is empty.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate the smaller vector for the dot product.
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot, normA, normB float64
	for _, dim := range sortedDims(a) {
		w := a[dim]
		normA += w * w
		if wb, ok := b[dim]; ok {
			dot += w * wb
		}
	}
	for _, dim := range sortedDims(b) {
		normB += b[dim] * b[dim]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// Mean returns the centroid of the given vectors, L2-normalized.
// Empty vectors contribute nothing; the mean of no vectors is empty.
func Mean(vectors []Vector) Vector {
	mean := make(Vector)
	n := 0
	for _, vec := range vectors {
		if len(vec) == 0 {
			continue
		}
		n++
		for _, dim := range sortedDims(vec) {
			mean[dim] += vec[dim]
		}
	}
	if n == 0 {
		return mean
	}
	dims := sortedDims(mean)
	var norm float64
	for _, dim := range dims {
		mean[dim] /= float64(n)
		norm += mean[dim] * mean[dim]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for _, dim := range dims {
			mean[dim] /= norm
		}
	}
	return mean
}

// Tokenize lower-cases text, splits on non-letter runes, and drops
// stop words and single-letter tokens.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// stopWords are common English words carrying no synergy signal.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "any": true, "are": true,
	"as": true, "at": true, "be": true, "but": true, "by": true,
	"can": true, "do": true, "does": true, "each": true, "for": true,
	"from": true, "has": true, "have": true, "if": true, "in": true,
	"into": true, "is": true, "it": true, "its": true, "may": true,
	"no": true, "not": true, "of": true, "on": true, "onto": true,
	"or": true, "that": true, "the": true, "then": true, "this": true,
	"to": true, "under": true, "until": true, "up": true, "was": true,
	"were": true, "when": true, "where": true, "whenever": true,
	"with": true, "would": true, "you": true, "your": true,
}
