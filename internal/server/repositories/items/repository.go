// Package items implements persistence of Item rows.
package items

import (
	"context"

	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
)

// Repository is the storage contract for items. Implementations report a
// missing row as common.ErrorNotFound and wrap every other storage failure.
type Repository interface {
	List(ctx context.Context) ([]*models.Item, error)
	Create(ctx context.Context, name, description string) (*models.Item, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Item, error)
	Update(ctx context.Context, item *models.Item) (*models.Item, error)
	Delete(ctx context.Context, id int64) (*models.Item, error)
}
