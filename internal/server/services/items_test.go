package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/logging"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/items"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
	with    []any
}

func newRecLogger() *recLogger {
	return &recLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l *recLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg, args: append(append([]any{}, l.with...), args...)})
}

func (l *recLogger) Info(_ context.Context, msg string, args ...any)  { l.add("info", msg, args) }
func (l *recLogger) Warn(_ context.Context, msg string, args ...any)  { l.add("warn", msg, args) }
func (l *recLogger) Error(_ context.Context, msg string, args ...any) { l.add("error", msg, args) }
func (l *recLogger) With(args ...any) logging.Logger {
	return &recLogger{mu: l.mu, entries: l.entries, with: append(append([]any{}, l.with...), args...)}
}

func (l *recLogger) errors() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range *l.entries {
		if e.level == "error" {
			out = append(out, e)
		}
	}
	return out
}

type fakeItemsRepo struct {
	rows   map[int64]models.Item
	nextID int64

	listErr   error
	createErr error
	getErr    error
	updateErr error
	deleteErr error

	updated []models.Item
}

func newFakeItemsRepo() *fakeItemsRepo {
	return &fakeItemsRepo{rows: map[int64]models.Item{}, nextID: 1}
}

func (f *fakeItemsRepo) List(context.Context) ([]*models.Item, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Item, 0, len(f.rows))
	for id := int64(1); id < f.nextID; id++ {
		if it, ok := f.rows[id]; ok {
			it := it
			out = append(out, &it)
		}
	}
	return out, nil
}

func (f *fakeItemsRepo) Create(_ context.Context, name, description string) (*models.Item, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	it := models.Item{ID: f.nextID, Name: name, Description: sql.NullString{String: description, Valid: true}}
	f.rows[it.ID] = it
	f.nextID++
	return &it, nil
}

func (f *fakeItemsRepo) GetForUpdate(_ context.Context, id int64) (*models.Item, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	it, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &it, nil
}

func (f *fakeItemsRepo) Update(_ context.Context, item *models.Item) (*models.Item, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated = append(f.updated, *item)
	f.rows[item.ID] = *item
	it := *item
	return &it, nil
}

func (f *fakeItemsRepo) Delete(_ context.Context, id int64) (*models.Item, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	it, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.rows, id)
	return &it, nil
}

type fakeRepoManager struct {
	repo *fakeItemsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Items(dbx.DBTX) items.Repository              { return m.repo }

func newService(t *testing.T, prePing bool) (*ItemService, sqlmock.Sqlmock, *fakeItemsRepo, *recLogger) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := newFakeItemsRepo()
	log := newRecLogger()
	return NewItemService(db, &fakeRepoManager{repo: repo}, log, prePing), mock, repo, log
}

func requirePersistenceError(t *testing.T, err error, op string, id int64, cause error) {
	t.Helper()
	var pe *common.PersistenceError
	require.True(t, errors.As(err, &pe), "want PersistenceError, got %v", err)
	assert.Equal(t, op, pe.Op)
	assert.Equal(t, id, pe.ItemID)
	assert.Equal(t, "failed to "+op+" item", err.Error())
	if cause != nil {
		assert.ErrorIs(t, err, cause)
	}
}

func seed(repo *fakeItemsRepo, name, description string) int64 {
	it, _ := repo.Create(context.Background(), name, description)
	return it.ID
}

// --- tests ---

func TestList(t *testing.T) {
	s, _, repo, log := newService(t, false)
	seed(repo, "a", "1")
	seed(repo, "b", "2")

	got, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Empty(t, log.errors())
}

func TestList_DBError(t *testing.T) {
	s, _, repo, log := newService(t, false)
	boom := errors.New("connection reset")
	repo.listErr = boom

	_, err := s.List(context.Background())
	requirePersistenceError(t, err, "list", 0, boom)
	require.Len(t, log.errors(), 1)
}

func TestCreate_Success(t *testing.T) {
	s, mock, repo, _ := newService(t, false)
	mock.ExpectBegin()
	mock.ExpectCommit()

	got, err := s.Create(context.Background(), "Widget", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.True(t, got.Description.Valid)
	assert.Equal(t, "", got.Description.String)
	assert.Len(t, repo.rows, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueIDs(t *testing.T) {
	s, mock, _, _ := newService(t, false)
	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		it, err := s.Create(context.Background(), "n", "d")
		require.NoError(t, err)
		assert.False(t, seen[it.ID], "id %d reused", it.ID)
		seen[it.ID] = true
	}
}

func TestCreate_RepoErrorRollsBackAndLogs(t *testing.T) {
	s, mock, repo, log := newService(t, false)
	boom := errors.New(`duplicate key value violates unique constraint "items_pkey"`)
	repo.createErr = boom
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.Create(context.Background(), "Widget", "x")
	requirePersistenceError(t, err, "create", 0, boom)
	assert.NotContains(t, err.Error(), "items_pkey")
	require.NoError(t, mock.ExpectationsWereMet())

	errs := log.errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].args, "create")
	assert.Contains(t, errs[0].args, boom.Error())
}

func TestCreate_CommitError(t *testing.T) {
	s, mock, _, _ := newService(t, false)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("commit failed"))

	_, err := s.Create(context.Background(), "Widget", "x")
	requirePersistenceError(t, err, "create", 0, nil)
}

func TestCreate_BeginError(t *testing.T) {
	s, mock, repo, _ := newService(t, false)
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err := s.Create(context.Background(), "Widget", "x")
	requirePersistenceError(t, err, "create", 0, nil)
	assert.Empty(t, repo.rows)
}

func TestCreate_PrePingFailure(t *testing.T) {
	s, mock, repo, _ := newService(t, true)
	down := errors.New("server closed the connection")
	mock.ExpectPing().WillReturnError(down)

	_, err := s.Create(context.Background(), "Widget", "x")
	requirePersistenceError(t, err, "create", 0, down)
	assert.Empty(t, repo.rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_PrePingSuccess(t *testing.T) {
	s, mock, _, _ := newService(t, true)
	mock.ExpectPing()
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := s.Create(context.Background(), "Widget", "x")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_PartialLeavesOmittedFields(t *testing.T) {
	s, mock, repo, _ := newService(t, false)
	id := seed(repo, "Widget", "orig")
	mock.ExpectBegin()
	mock.ExpectCommit()

	got, err := s.Update(context.Background(), id, models.ItemUpdate{Name: models.Value("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "orig", got.Description.String)
}

func TestUpdate_EmptyStringOverwrites(t *testing.T) {
	s, mock, repo, _ := newService(t, false)
	id := seed(repo, "Widget", "orig")
	mock.ExpectBegin()
	mock.ExpectCommit()

	got, err := s.Update(context.Background(), id, models.ItemUpdate{Description: models.Value("")})
	require.NoError(t, err)
	assert.True(t, got.Description.Valid)
	assert.Equal(t, "", got.Description.String)
	assert.Equal(t, "Widget", got.Name)
}

func TestUpdate_Idempotent(t *testing.T) {
	s, mock, repo, _ := newService(t, false)
	id := seed(repo, "Widget", "orig")
	upd := models.ItemUpdate{Name: models.Value("Renamed"), Description: models.Value("new")}

	mock.ExpectBegin()
	mock.ExpectCommit()
	first, err := s.Update(context.Background(), id, upd)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	second, err := s.Update(context.Background(), id, upd)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, *first, repo.rows[id])
}

func TestUpdate_NotFound(t *testing.T) {
	s, mock, _, log := newService(t, false)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.Update(context.Background(), 99, models.ItemUpdate{Name: models.Value("x")})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Empty(t, log.errors(), "not found is not a server fault")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_RepoErrorRollsBack(t *testing.T) {
	s, mock, repo, log := newService(t, false)
	id := seed(repo, "Widget", "orig")
	boom := errors.New("deadlock detected")
	repo.updateErr = boom
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.Update(context.Background(), id, models.ItemUpdate{Name: models.Value("x")})
	requirePersistenceError(t, err, "update", id, boom)
	assert.Equal(t, "Widget", repo.rows[id].Name)

	errs := log.errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].args, "item_id")
	assert.Contains(t, errs[0].args, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_Success(t *testing.T) {
	s, mock, repo, _ := newService(t, false)
	id := seed(repo, "Gone", "bye")
	mock.ExpectBegin()
	mock.ExpectCommit()

	got, err := s.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Gone", got.Name)
	assert.Empty(t, repo.rows)
}

func TestDelete_IsTerminal(t *testing.T) {
	s, mock, repo, _ := newService(t, false)
	id := seed(repo, "Gone", "bye")

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := s.Delete(context.Background(), id)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = s.Delete(context.Background(), id)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = s.Update(context.Background(), id, models.ItemUpdate{Name: models.Value("back")})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_RepoError(t *testing.T) {
	s, mock, repo, _ := newService(t, false)
	boom := errors.New("lost connection")
	repo.deleteErr = boom
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.Delete(context.Background(), 4)
	requirePersistenceError(t, err, "delete", 4, boom)
}
