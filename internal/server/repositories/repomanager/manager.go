package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/items"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Items(db dbx.DBTX) items.Repository
}
