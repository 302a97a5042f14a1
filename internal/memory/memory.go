package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Embedder turns a text into a vector used for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// MemoryMatch is one retrieved lesson with its similarity to the query.
type MemoryMatch struct {
	MatchedSituation string  `json:"matched_situation"`
	Recommendation   string  `json:"recommendation"`
	SimilarityScore  float64 `json:"similarity_score"`
}

type record struct {
	situation      string
	recommendation string
	embedding      []float64
}

// FinancialSituationMemory stores (situation, recommendation) pairs and
// retrieves the most similar past situations by cosine similarity. Writes are
// append-only.
type FinancialSituationMemory struct {
	name     string
	embedder Embedder
	logger   *zap.Logger

	mu      sync.RWMutex
	records []record
}

// NewFinancialSituationMemory creates an empty memory named after its owner
// (e.g. "bull_memory").
func NewFinancialSituationMemory(name string, embedder Embedder, logger *zap.Logger) *FinancialSituationMemory {
	return &FinancialSituationMemory{
		name:     name,
		embedder: embedder,
		logger:   logger,
	}
}

// Name returns the memory's owner label.
func (m *FinancialSituationMemory) Name() string { return m.name }

// Len returns the number of stored lessons.
func (m *FinancialSituationMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// AddSituations appends situation/recommendation pairs. Pairs are embedded up
// front so retrieval stays read-only.
func (m *FinancialSituationMemory) AddSituations(ctx context.Context, pairs [][2]string) error {
	embedded := make([]record, 0, len(pairs))
	for _, p := range pairs {
		vec, err := m.embedder.Embed(ctx, p[0])
		if err != nil {
			return fmt.Errorf("embed situation for %s: %w", m.name, err)
		}
		embedded = append(embedded, record{situation: p[0], recommendation: p[1], embedding: vec})
	}

	m.mu.Lock()
	m.records = append(m.records, embedded...)
	m.mu.Unlock()

	m.logger.Debug("memory updated",
		zap.String("memory", m.name), zap.Int("added", len(embedded)))
	return nil
}

// GetMemories returns up to topN stored lessons most similar to the
// situation, best match first. An empty memory returns no matches.
func (m *FinancialSituationMemory) GetMemories(ctx context.Context, situation string, topN int) ([]MemoryMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 || topN <= 0 {
		return nil, nil
	}

	query, err := m.embedder.Embed(ctx, situation)
	if err != nil {
		return nil, fmt.Errorf("embed query for %s: %w", m.name, err)
	}

	matches := make([]MemoryMatch, 0, len(m.records))
	for _, r := range m.records {
		matches = append(matches, MemoryMatch{
			MatchedSituation: r.situation,
			Recommendation:   r.recommendation,
			SimilarityScore:  cosineSimilarity(query, r.embedding),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].SimilarityScore > matches[j].SimilarityScore
	})
	if len(matches) > topN {
		matches = matches[:topN]
	}
	return matches, nil
}

// FormatMemories renders matches as the "past lessons" block injected into
// prompts. No matches yields an explicit placeholder.
func FormatMemories(matches []MemoryMatch) string {
	if len(matches) == 0 {
		return "No past memories found."
	}
	out := ""
	for i, m := range matches {
		out += fmt.Sprintf("%d. %s\n\n", i+1, m.Recommendation)
	}
	return out
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
