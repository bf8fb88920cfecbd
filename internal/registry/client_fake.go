package registry

import (
	"context"
	"sync"
	"time"

	id "namemart/pkg/domain"
	"namemart/pkg/platform/sentinel"
)

// FakeClient is a deterministic in-process registry for dev mode and tests.
// A configurable latency mimics real-world calls.
type FakeClient struct {
	Latency time.Duration

	mu      sync.RWMutex
	records map[id.NameKey]Record
}

func NewFakeClient() *FakeClient {
	return &FakeClient{records: make(map[id.NameKey]Record)}
}

// Seed installs an ownership record directly, bypassing transfer rules.
func (c *FakeClient) Seed(key id.NameKey, owner, previousOwner id.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[key] = Record{Owner: owner, PreviousOwner: previousOwner}
}

func (c *FakeClient) Record(_ context.Context, key id.NameKey) (Record, error) {
	time.Sleep(c.Latency)
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[key]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return record, nil
}

func (c *FakeClient) Transfer(_ context.Context, key id.NameKey, newOwner id.Address) error {
	time.Sleep(c.Latency)
	c.mu.Lock()
	defer c.mu.Unlock()
	record, ok := c.records[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.records[key] = Record{Owner: newOwner, PreviousOwner: record.Owner}
	return nil
}
