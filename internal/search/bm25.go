// Package search provides keyword search over the product catalog using the
// BM25 ranking function.
package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	bm25 "github.com/iwilltry42/bm25-go/bm25"

	"github.com/gyanbazaar/ignou-study-bot/internal/logger"
	"github.com/gyanbazaar/ignou-study-bot/internal/storage"
)

// Result is one search hit. Confidence is derived from rank position, not
// score magnitude, since raw BM25 scores are not comparable across corpora.
type Result struct {
	ProductID  int64
	Name       string
	PriceINR   int64
	Score      float64
	Confidence float32 // 0-1, higher = more relevant
}

// Index is a BM25 index over product names and descriptions.
// Rebuild replaces the whole index; BM25 needs the full corpus for IDF, so
// there is no incremental add.
type Index struct {
	mu        sync.RWMutex
	okapi     *bm25.BM25Okapi
	products  []storage.Product
	logger    *logger.Logger
	minTokens int
}

// NewIndex creates an empty index.
func NewIndex(log *logger.Logger) *Index {
	return &Index{
		logger:    log.WithModule("search"),
		minTokens: 1,
	}
}

// Rebuild replaces the index contents with the given products.
func (idx *Index) Rebuild(products []storage.Product) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(products) == 0 {
		idx.okapi = nil
		idx.products = nil
		return nil
	}

	corpus := make([]string, len(products))
	for i, p := range products {
		corpus[i] = p.Name + " " + p.Description
	}

	// k1=1.5, b=0.75 are standard BM25 parameters
	okapi, err := bm25.NewBM25Okapi(corpus, tokenize, 1.5, 0.75, nil)
	if err != nil {
		return fmt.Errorf("failed to build search index: %w", err)
	}

	idx.okapi = okapi
	idx.products = products
	idx.logger.WithField("products", len(products)).Info("search index rebuilt")
	return nil
}

// Search returns up to topN products ranked by BM25 score. Products with a
// zero score are excluded; an empty result means nothing matched.
func (idx *Index) Search(query string, topN int) ([]Result, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.okapi == nil {
		return nil, nil
	}

	tokens := tokenize(query)
	if len(tokens) < idx.minTokens {
		return nil, nil
	}

	scores, err := idx.okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to score query: %w", err)
	}

	var results []Result
	for i, score := range scores {
		if score <= 0 || i >= len(idx.products) {
			continue
		}
		p := idx.products[i]
		results = append(results, Result{
			ProductID: p.ID,
			Name:      p.Name,
			PriceINR:  p.PriceINR,
			Score:     score,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	for i := range results {
		results[i].Confidence = rankConfidence(i)
	}
	return results, nil
}

// rankConfidence maps a rank position to a confidence value: 1.0 for the
// top hit, decaying toward 0.2 for later positions.
func rankConfidence(rank int) float32 {
	conf := 1.0 - float32(rank)*0.2
	if conf < 0.2 {
		return 0.2
	}
	return conf
}

// tokenize lowercases and splits on anything that is not a letter or digit.
// Course codes like "BCS-011" and "bcs011" both reduce to comparable tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
