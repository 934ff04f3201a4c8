package orclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/elee1766/rune/src/aisdk"
)

// ModelCache caches the provider's model list.
type ModelCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	client    *Client
	models    []*aisdk.ModelInfo
	fetchedAt time.Time
}

// NewModelCache creates a new model cache
func NewModelCache(client *Client, ttl time.Duration) *ModelCache {
	return &ModelCache{
		ttl:    ttl,
		client: client,
	}
}

// GetModelList gets the model list from cache or fetches it
func (mc *ModelCache) GetModelList(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	mc.mu.RLock()
	models, fetchedAt := mc.models, mc.fetchedAt
	mc.mu.RUnlock()

	if models != nil && time.Since(fetchedAt) < mc.ttl {
		return models, nil
	}

	models, err := mc.client.listModels(ctx)
	if err != nil {
		return nil, err
	}

	mc.mu.Lock()
	mc.models = models
	mc.fetchedAt = time.Now()
	mc.mu.Unlock()

	return models, nil
}

// GetModel finds a model by exact id.
func (mc *ModelCache) GetModel(ctx context.Context, modelID string) (*aisdk.ModelInfo, error) {
	models, err := mc.GetModelList(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		if m.ID == modelID {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
}

// Clear drops the cached list.
func (mc *ModelCache) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.models = nil
}
