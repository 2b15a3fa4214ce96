package schema

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxConnIface {
	t.Helper()
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close(context.Background()) })
	return mock
}

func TestEnsureDatabase_Creates(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(databaseExistsQuery)).
		WithArgs("company").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE DATABASE "company"`)).
		WillReturnResult(pgxmock.NewResult("CREATE DATABASE", 0))

	created, err := EnsureDatabase(context.Background(), mock, "company")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDatabase_AlreadyExists(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(databaseExistsQuery)).
		WithArgs("company").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	created, err := EnsureDatabase(context.Background(), mock, "company")
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDatabase_QuotesIdentifier(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	name := `odd"; DROP TABLE users; --`
	mock.ExpectQuery(regexp.QuoteMeta(databaseExistsQuery)).
		WithArgs(name).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE DATABASE "odd""; DROP TABLE users; --"`)).
		WillReturnResult(pgxmock.NewResult("CREATE DATABASE", 0))

	_, err := EnsureDatabase(context.Background(), mock, name)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDatabase_CheckFails(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	boom := errors.New("connection refused")
	mock.ExpectQuery(regexp.QuoteMeta(databaseExistsQuery)).
		WithArgs("company").
		WillReturnError(boom)

	_, err := EnsureDatabase(context.Background(), mock, "company")
	assert.ErrorIs(t, err, boom)
}

func TestEnsureDatabase_EmptyName(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	_, err := EnsureDatabase(context.Background(), mock, "")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(SQL())).
		WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))

	require.NoError(t, EnsureSchema(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_Fails(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnError(errors.New("permission denied"))

	err := EnsureSchema(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply schema")
}

func TestSQL_IsIdempotent(t *testing.T) {
	t.Parallel()

	script := SQL()
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CREATE TABLE IF NOT EXISTS company_profile",
		"CREATE INDEX IF NOT EXISTS idx_users_email",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_company_profile_owner_id_unique",
		"CREATE INDEX IF NOT EXISTS idx_company_profile_industry",
	} {
		assert.Contains(t, script, want)
	}
	assert.Equal(t, strings.Count(script, "CREATE "), strings.Count(script, "IF NOT EXISTS"))
}
