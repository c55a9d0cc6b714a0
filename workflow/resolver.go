package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"bitbucket.org/mmdatafocus/parcels_backend/models"
	"gorm.io/gorm"
)

// FileStore is the external attachment store collaborator. The lifecycle
// persists only the returned content hash and URL, never file bytes.
type FileStore interface {
	Add(ctx context.Context, data []byte) (hash string, err error)
	PublicURL(hash string) string
}

// manufactureResolver maps manufacture ids as supplied by callers (internal
// numeric ids or legacy external document-store ids) to internal ids. The
// cache lives for one lifecycle operation, so a renamed or re-imported
// manufacture is picked up by the next operation.
type manufactureResolver struct {
	cache map[string]int
}

func newManufactureResolver() *manufactureResolver {
	return &manufactureResolver{cache: map[string]int{}}
}

func (r *manufactureResolver) resolve(tx *gorm.DB, id string) (int, error) {
	if resolved, ok := r.cache[id]; ok {
		return resolved, nil
	}

	if n, err := strconv.Atoi(id); err == nil {
		r.cache[id] = n
		return n, nil
	}

	var manufacture models.Manufacture
	if err := tx.Where("external_id = ?", id).First(&manufacture).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("manufacture %q not found", id)
		}
		return 0, err
	}
	r.cache[id] = manufacture.ID
	return manufacture.ID, nil
}
