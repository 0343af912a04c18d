package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Item, error) {
	query :=
		`SELECT id, name, description FROM items
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Item, 0)
	for rows.Next() {
		item := &models.Item{}
		if err := rows.Scan(&item.ID, &item.Name, &item.Description); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

// Create inserts a row. description is always stored as a string.
func (r *PostgresRepository) Create(ctx context.Context, name, description string) (*models.Item, error) {
	query :=
		`INSERT INTO items (name, description)
		 VALUES ($1, $2)
		 RETURNING id, name, description
		 `

	item := &models.Item{}
	err := r.db.QueryRowContext(ctx, query, name, description).Scan(&item.ID, &item.Name, &item.Description)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

// GetForUpdate reads a row and locks it until the surrounding transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id int64) (*models.Item, error) {
	query :=
		`SELECT id, name, description FROM items
		 WHERE id = $1
		 FOR UPDATE
		 `

	item := &models.Item{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.Name, &item.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

// Update writes name and description of item back to its row.
func (r *PostgresRepository) Update(ctx context.Context, item *models.Item) (*models.Item, error) {
	query :=
		`UPDATE items SET name = $2, description = $3
		 WHERE id = $1
		 RETURNING id, name, description
		 `

	updated := &models.Item{}
	err := r.db.QueryRowContext(ctx, query, item.ID, item.Name, item.Description).
		Scan(&updated.ID, &updated.Name, &updated.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return updated, nil
}

// Delete removes a row and returns it as it was before removal.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (*models.Item, error) {
	query :=
		`DELETE FROM items
		 WHERE id = $1
		 RETURNING id, name, description
		 `

	item := &models.Item{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.Name, &item.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}
