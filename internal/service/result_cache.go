package service

import (
	"context"
	"sync"

	"github.com/noah-isme/exam-score-api/internal/models"
)

// ResultCache stores computed results keyed by student code.
type ResultCache interface {
	Get(ctx context.Context, code string) (*models.CalculationResult, bool, error)
	Set(ctx context.Context, code string, result models.CalculationResult) error
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int, error)
}

// MemoryResultCache is an in-process ResultCache. Entries live until Clear is called.
type MemoryResultCache struct {
	mu      sync.RWMutex
	results map[string]models.CalculationResult
}

// NewMemoryResultCache constructs an empty MemoryResultCache.
func NewMemoryResultCache() *MemoryResultCache {
	return &MemoryResultCache{results: make(map[string]models.CalculationResult)}
}

// Get returns the cached result for code.
func (c *MemoryResultCache) Get(_ context.Context, code string) (*models.CalculationResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.results[code]
	if !ok {
		return nil, false, nil
	}
	return &result, true, nil
}

// Set stores result under code, replacing any previous entry.
func (c *MemoryResultCache) Set(_ context.Context, code string, result models.CalculationResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[code] = result
	return nil
}

// Clear drops every entry.
func (c *MemoryResultCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[string]models.CalculationResult)
	return nil
}

// Size reports the number of cached entries.
func (c *MemoryResultCache) Size(context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results), nil
}
