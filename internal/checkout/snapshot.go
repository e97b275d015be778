package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wichananm65/flower-shop-storefront/internal/order"
)

var ErrNoSnapshot = errors.New("payment snapshot not found")

// Snapshot is what the storefront remembers about an order while the shopper is away
// on the MoMo payment page.
type Snapshot struct {
	SessionID    string       `json:"sessionId"`
	OrderID      int          `json:"originalOrderId"`
	CustomerID   int          `json:"customerId"`
	CustomerName string       `json:"customerName"`
	Phone        string       `json:"phone"`
	Address      string       `json:"address"`
	Total        float64      `json:"total"`
	Items        []order.Item `json:"items"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (s Snapshot) ProductIDs() []int64 {
	ids := make([]int64, 0, len(s.Items))
	for _, it := range s.Items {
		ids = append(ids, int64(it.ProductID))
	}
	return ids
}

// SnapshotRepository keeps at most one snapshot per session.
type SnapshotRepository interface {
	Save(ctx context.Context, s Snapshot) error
	Load(ctx context.Context, sessionID string) (Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

type InMemorySnapshotRepository struct {
	mu    sync.Mutex
	items map[string]Snapshot
}

func NewInMemorySnapshotRepository() *InMemorySnapshotRepository {
	return &InMemorySnapshotRepository{items: map[string]Snapshot{}}
}

func (r *InMemorySnapshotRepository) Save(_ context.Context, s Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.Items = append([]order.Item(nil), s.Items...)
	r.items[s.SessionID] = s
	return nil
}

func (r *InMemorySnapshotRepository) Load(_ context.Context, sessionID string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[sessionID]
	if !ok {
		return Snapshot{}, ErrNoSnapshot
	}
	return s, nil
}

func (r *InMemorySnapshotRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, sessionID)
	return nil
}
