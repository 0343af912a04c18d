// Package services contains server-side business logic. ItemService runs
// every mutation of the items table inside a single transaction and is the
// boundary at which storage failures are logged and turned into
// common.PersistenceError.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/logging"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/repomanager"
)

const (
	opList   = "list"
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// ItemService implements list/create/update/delete of items.
type ItemService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	prePing     bool
}

// NewItemService constructs an ItemService. With prePing set, the pool is
// pinged before each operation so a dead backend fails fast.
func NewItemService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger, prePing bool) *ItemService {
	return &ItemService{
		db:          db,
		repomanager: m,
		logger:      l.With("module", "item_service"),
		prePing:     prePing,
	}
}

// List returns all items ordered by id.
func (s *ItemService) List(ctx context.Context) ([]*models.Item, error) {
	if err := s.ping(ctx); err != nil {
		return nil, s.fail(ctx, opList, 0, err)
	}

	items, err := s.repomanager.Items(s.db).List(ctx)
	if err != nil {
		return nil, s.fail(ctx, opList, 0, err)
	}
	return items, nil
}

// Create stores a new item and returns it with its generated id.
func (s *ItemService) Create(ctx context.Context, name, description string) (*models.Item, error) {
	if err := s.ping(ctx); err != nil {
		return nil, s.fail(ctx, opCreate, 0, err)
	}

	var item *models.Item
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		item, err = s.repomanager.Items(tx).Create(ctx, name, description)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, opCreate, 0, err)
	}
	return item, nil
}

// Update applies the concrete fields of upd to item id. A missing item
// yields common.ErrorNotFound.
func (s *ItemService) Update(ctx context.Context, id int64, upd models.ItemUpdate) (*models.Item, error) {
	if err := s.ping(ctx); err != nil {
		return nil, s.fail(ctx, opUpdate, id, err)
	}

	var item *models.Item
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Items(tx)

		current, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		upd.Apply(current)

		item, err = repo.Update(ctx, current)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.fail(ctx, opUpdate, id, err)
	}
	return item, nil
}

// Delete removes item id and returns it as it was. A missing item yields
// common.ErrorNotFound.
func (s *ItemService) Delete(ctx context.Context, id int64) (*models.Item, error) {
	if err := s.ping(ctx); err != nil {
		return nil, s.fail(ctx, opDelete, id, err)
	}

	var item *models.Item
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		item, err = s.repomanager.Items(tx).Delete(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.fail(ctx, opDelete, id, err)
	}
	return item, nil
}

func (s *ItemService) ping(ctx context.Context) error {
	if !s.prePing {
		return nil
	}
	return s.db.PingContext(ctx)
}

// fail logs the full cause and returns the detail-free error for callers.
func (s *ItemService) fail(ctx context.Context, op string, id int64, cause error) error {
	args := []any{"op", op, "error", cause.Error()}
	if id != 0 {
		args = append(args, "item_id", id)
	}
	s.logger.Error(ctx, "database error", args...)
	return common.NewPersistenceError(op, id, cause)
}
