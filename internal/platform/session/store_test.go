package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Delete(ctx, "k", "missing"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_RoundTripAndPermissions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStore(path)

	_, err := s.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyToken, "tok"))
	require.NoError(t, s.Set(ctx, KeyRole, "admin"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dir, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dir.Mode().Perm())

	reopened := NewFileStore(path)
	v, err := reopened.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", v)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFileStore_DeleteRemovesEmptyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path)

	require.NoError(t, s.Set(ctx, KeyToken, "tok"))
	require.NoError(t, s.Set(ctx, "other", "x"))

	require.NoError(t, s.Delete(ctx, Keys...))
	v, err := s.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	require.NoError(t, s.Delete(ctx, "other"))
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, s.Delete(ctx, "other"), "deleting from a missing file is a no-op")
}

func TestFileStore_Corrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	s := NewFileStore(path)

	_, err := s.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, s.Delete(ctx, Keys...))
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	require.NoError(t, s.Set(ctx, KeyToken, "fresh"))
	v, err := s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestFileStore_CorruptUserDataClearsManager(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json at all`), 0o600))

	m, err := NewManager(ctx, NewFileStore(path), nil)
	require.NoError(t, err)
	assert.Nil(t, m.CurrentUser())
	assert.False(t, m.IsAuthenticated(ctx))
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.value
	return nil
}

type fakeConn struct {
	rows  map[string]string
	execs []string
	err   error
}

func (c *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.execs = append(c.execs, sql)
	if c.err != nil {
		return pgconn.CommandTag{}, c.err
	}
	switch v := args[0].(type) {
	case string:
		c.rows[v] = args[1].(string)
	case []string:
		for _, k := range v {
			delete(c.rows, k)
		}
	}
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	v, ok := c.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: v}
}

func TestPGStore(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{rows: map[string]string{}}
	s := NewPGStore(conn)

	_, err := s.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyToken, "tok"))
	v, err := s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", v)

	require.NoError(t, s.Delete(ctx))
	assert.Len(t, conn.execs, 1, "empty delete does not hit the database")

	require.NoError(t, s.Delete(ctx, Keys...))
	_, err = s.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGStore_WrapsErrors(t *testing.T) {
	conn := &fakeConn{rows: map[string]string{}, err: errors.New("conn reset")}
	err := NewPGStore(conn).Set(context.Background(), KeyToken, "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conn reset")
}

func TestParseTokenInfo(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ana@h.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("any-key"))
	require.NoError(t, err)

	info, err := ParseTokenInfo(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@h.com", info.Subject)
	assert.True(t, info.ExpiresAt.Equal(exp))
	assert.False(t, info.Expired(time.Now()))
	assert.True(t, info.Expired(exp.Add(time.Minute)))
	assert.True(t, info.IssuedAt.IsZero())

	_, err = ParseTokenInfo("not-a-jwt")
	assert.Error(t, err)
}
