package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TabSync coordina instancias concurrentes de la aplicación (el equivalente
// a la sincronización cross-tab): cada instancia toma un lease con ID
// propio y lo libera en el logout. El session manager lo invoca como
// colaborador best-effort.
type TabSync struct {
	client Client
	id     string
}

const leasePrefix = "lease:"

func NewTabSync(c Client) *TabSync {
	return &TabSync{client: c, id: uuid.NewString()}
}

// Acquire registra el lease de esta instancia.
func (t *TabSync) Acquire(ctx context.Context, ttl time.Duration) error {
	return t.client.Set(ctx, leasePrefix+t.id, time.Now().UTC().Format(time.RFC3339), ttl)
}

// Release libera el lease. Idempotente.
func (t *TabSync) Release(ctx context.Context) error {
	return t.client.Delete(ctx, leasePrefix+t.id)
}
