package entries

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	entryID = "6f1c2a7e-52a4-4b6e-9d55-0c1f3e8b9a10"

	insertQ = `(?s)^\s*INSERT\s+INTO\s+journal_entries\s*\(id,\s*title,\s*content,\s*created_on\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*$`
	selectQ = `^SELECT\s+id,\s*title,\s*content,\s*created_on\s+FROM\s+journal_entries\s+WHERE\s+id\s*=\s*\$1$`
	updateQ = `^UPDATE\s+journal_entries\s+SET\s+title\s*=\s*\$2,\s*content\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1$`
	deleteQ = `^DELETE\s+FROM\s+journal_entries\s+WHERE\s+id\s*=\s*\$1$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	day := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(insertQ).
		WithArgs(entryID, "Day 1", "hello", day).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.JournalEntry{ID: entryID, Title: "Day 1", Content: "hello", CreatedOn: day})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQ).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.JournalEntry{ID: entryID, Title: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	day := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(selectQ).WithArgs(entryID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "created_on"}).AddRow(entryID, "Day 1", "hello", day))

	got, err := repo.Get(context.Background(), entryID)
	require.NoError(t, err)
	assert.Equal(t, &models.JournalEntry{ID: entryID, Title: "Day 1", Content: "hello", CreatedOn: day}, got)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQ).WithArgs(entryID).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), entryID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMalformedIDs_AreNotFoundWithoutQuery(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &models.JournalEntry{ID: "x"}), common.ErrorNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ""), common.ErrorNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateQ).WithArgs(entryID, "Day 1", "new").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateQ).WithArgs(entryID, "Day 1", "new").WillReturnResult(sqlmock.NewResult(0, 0))

	e := &models.JournalEntry{ID: entryID, Title: "Day 1", Content: "new"}
	require.NoError(t, repo.Update(context.Background(), e))
	assert.ErrorIs(t, repo.Update(context.Background(), e), common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(deleteQ).WithArgs(entryID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQ).WithArgs(entryID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteQ).WithArgs(entryID).WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.Delete(context.Background(), entryID))
	assert.ErrorIs(t, repo.Delete(context.Background(), entryID), common.ErrorNotFound)
	assert.ErrorContains(t, repo.Delete(context.Background(), entryID), "unexpected rows affected")
}
