// Package classifier scores job titles for topical relevance to the
// pipeline (data/BI/analyst roles). It trains a TF-IDF + multinomial
// naive-Bayes model on the staging layer's titles as positives and a
// built-in list of known false-positive titles as negatives.
package classifier

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
)

const (
	// alpha is the naive-Bayes smoothing constant.
	alpha = 0.1
	// maxFeatures caps the vocabulary at the most frequent terms.
	maxFeatures = 500
	// maxDocFrac drops terms appearing in more than this fraction of
	// training titles.
	maxDocFrac = 0.9
)

// classes: index 0 = not relevant, index 1 = relevant.
const numClasses = 2

// Model is a trained title classifier. All fields are exported so the
// model round-trips through JSON.
type Model struct {
	TrainedAt      time.Time             `json:"trained_at"`
	Positives      int                   `json:"positives"`
	Negatives      int                   `json:"negatives"`
	Vocabulary     map[string]int        `json:"vocabulary"`
	IDF            []float64             `json:"idf"`
	ClassLogPrior  [numClasses]float64   `json:"class_log_prior"`
	FeatureLogProb [numClasses][]float64 `json:"feature_log_prob"`
}

// Result is one classified title.
type Result struct {
	Title      string  `json:"title"`
	Relevant   bool    `json:"relevant"`
	Confidence float64 `json:"confidence"`
}

// stopwords is a compact english stopword list; job titles rarely
// contain more than these.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(
		"a an and are as at be by for from has in is it of on or the to with " +
			"all this that will not no our your their into out up down over under") {
		stopwords[w] = struct{}{}
	}
}

// tokenize lowercases the title and emits unigrams plus bigrams over
// alphanumeric tokens of two or more characters, stopwords excluded.
func tokenize(title string) []string {
	lower := strings.ToLower(title)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	unigrams := words[:0]
	for _, w := range words {
		if len(w) < 2 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		unigrams = append(unigrams, w)
	}
	terms := make([]string, 0, 2*len(unigrams))
	terms = append(terms, unigrams...)
	for i := 0; i+1 < len(unigrams); i++ {
		terms = append(terms, unigrams[i]+" "+unigrams[i+1])
	}
	return terms
}

// Train fits the model. Positives normally come from staging.jobs_v1;
// negatives default to the built-in false-positive titles.
func Train(positives, negatives []string) (*Model, error) {
	if len(positives) == 0 {
		return nil, ErrNoTrainingData
	}
	docs := make([][]string, 0, len(positives)+len(negatives))
	labels := make([]int, 0, len(positives)+len(negatives))
	for _, t := range negatives {
		docs = append(docs, tokenize(t))
		labels = append(labels, 0)
	}
	for _, t := range positives {
		docs = append(docs, tokenize(t))
		labels = append(labels, 1)
	}

	m := &Model{
		TrainedAt: time.Now().UTC(),
		Positives: len(positives),
		Negatives: len(negatives),
	}
	m.buildVocabulary(docs)
	m.fit(docs, labels)
	return m, nil
}

// buildVocabulary selects up to maxFeatures terms by corpus frequency,
// dropping terms present in more than maxDocFrac of the documents, and
// computes smoothed IDF weights.
func (m *Model) buildVocabulary(docs [][]string) {
	termFreq := map[string]int{}
	docFreq := map[string]int{}
	for _, doc := range docs {
		seen := map[string]struct{}{}
		for _, term := range doc {
			termFreq[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
	}

	maxDF := int(maxDocFrac * float64(len(docs)))
	if maxDF < 1 {
		maxDF = 1
	}
	candidates := make([]string, 0, len(termFreq))
	for term, df := range docFreq {
		if df <= maxDF {
			candidates = append(candidates, term)
		}
	}
	// Most frequent first; alphabetical tie-break keeps training
	// deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		if termFreq[candidates[i]] != termFreq[candidates[j]] {
			return termFreq[candidates[i]] > termFreq[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > maxFeatures {
		candidates = candidates[:maxFeatures]
	}

	m.Vocabulary = make(map[string]int, len(candidates))
	m.IDF = make([]float64, len(candidates))
	n := float64(len(docs))
	for i, term := range candidates {
		m.Vocabulary[term] = i
		m.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
}

// vectorize turns a token list into an L2-normalized TF-IDF vector.
func (m *Model) vectorize(terms []string) []float64 {
	vec := make([]float64, len(m.IDF))
	for _, term := range terms {
		if idx, ok := m.Vocabulary[term]; ok {
			vec[idx]++
		}
	}
	var norm float64
	for i := range vec {
		vec[i] *= m.IDF[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// fit estimates the multinomial naive-Bayes parameters from the
// vectorized training documents.
func (m *Model) fit(docs [][]string, labels []int) {
	var classCount [numClasses]float64
	var featureCount [numClasses][]float64
	for c := 0; c < numClasses; c++ {
		featureCount[c] = make([]float64, len(m.IDF))
	}
	for i, doc := range docs {
		c := labels[i]
		classCount[c]++
		for j, w := range m.vectorize(doc) {
			featureCount[c][j] += w
		}
	}

	total := float64(len(docs))
	for c := 0; c < numClasses; c++ {
		m.ClassLogPrior[c] = math.Log(classCount[c] / total)
		var sum float64
		for _, w := range featureCount[c] {
			sum += w
		}
		denom := sum + alpha*float64(len(m.IDF))
		m.FeatureLogProb[c] = make([]float64, len(m.IDF))
		for j, w := range featureCount[c] {
			m.FeatureLogProb[c][j] = math.Log((w + alpha) / denom)
		}
	}
}

// Classify scores one title. Confidence is the probability of the
// relevant class; the title is relevant when confidence >= threshold.
func (m *Model) Classify(title string, threshold float64) Result {
	vec := m.vectorize(tokenize(title))
	var jll [numClasses]float64
	for c := 0; c < numClasses; c++ {
		jll[c] = m.ClassLogPrior[c]
		for j, w := range vec {
			if w != 0 {
				jll[c] += w * m.FeatureLogProb[c][j]
			}
		}
	}
	confidence := 1 / (1 + math.Exp(jll[0]-jll[1]))
	return Result{Title: title, Relevant: confidence >= threshold, Confidence: confidence}
}

// ClassifyBatch scores many titles with one model pass per title.
func (m *Model) ClassifyBatch(titles []string, threshold float64) []Result {
	out := make([]Result, len(titles))
	for i, t := range titles {
		out[i] = m.Classify(t, threshold)
	}
	return out
}
