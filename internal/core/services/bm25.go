package services

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
)

// BM25 parameters. k1 controls term-frequency saturation, b the degree
// of length normalisation; the values are the usual defaults.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// bm25Index is a lexical ranking model over one book's chunk set. It is
// built fresh for every query from the chunks currently stored in the
// embedding index: there is no incremental maintenance, so construction
// cost grows with book size and is paid on every call.
type bm25Index struct {
	chunks    []domain.Chunk
	docTokens [][]string
	docFreq   map[string]int
	avgDocLen float64
	stopwords map[string]struct{}
}

// newBM25Index builds the index over the given corpus.
func newBM25Index(chunks []domain.Chunk) *bm25Index {
	idx := &bm25Index{
		chunks:    chunks,
		docTokens: make([][]string, len(chunks)),
		docFreq:   make(map[string]int),
		stopwords: defaultStopwords(),
	}

	totalLen := 0
	for i, chunk := range chunks {
		tokens := idx.tokenize(chunk.Text)
		idx.docTokens[i] = tokens
		totalLen += len(tokens)

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			idx.docFreq[tok]++
		}
	}

	if len(chunks) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(chunks))
	}
	return idx
}

// Rank scores every chunk against the query and returns the top k by
// BM25 score. Ties keep corpus order, so the ranking is deterministic
// for a fixed corpus and query.
func (idx *bm25Index) Rank(query string, k int) []domain.ScoredChunk {
	queryTokens := idx.tokenize(query)
	if len(queryTokens) == 0 || len(idx.chunks) == 0 {
		return nil
	}

	n := float64(len(idx.chunks))
	scored := make([]domain.ScoredChunk, 0, len(idx.chunks))

	for i, chunk := range idx.chunks {
		docLen := float64(len(idx.docTokens[i]))
		tf := make(map[string]int, len(idx.docTokens[i]))
		for _, tok := range idx.docTokens[i] {
			tf[tok]++
		}

		score := 0.0
		for _, term := range queryTokens {
			f := float64(tf[term])
			if f == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(idx.docFreq[term])+0.5)/(float64(idx.docFreq[term])+0.5))
			score += idf * (f * (bm25K1 + 1)) / (f + bm25K1*(1-bm25B+bm25B*docLen/idx.avgDocLen))
		}

		if score > 0 {
			scored = append(scored, domain.ScoredChunk{Chunk: chunk, Score: score, Origin: "sparse"})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func (idx *bm25Index) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := idx.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to",
		"of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were",
		"be", "been", "being", "it", "this", "that", "these", "those", "from",
		"up", "down", "over", "under", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "out", "off", "own",
		"same", "too", "very", "can", "will", "just", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
