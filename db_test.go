package launcher

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"testing"
)

// recordingDriver accepts every statement and remembers it.
type recordingDriver struct {
	mu    sync.Mutex
	execs []string
	fail  string
}

func (d *recordingDriver) Open(string) (driver.Conn, error) { return &recordingConn{d: d}, nil }

type recordingConn struct{ d *recordingDriver }

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (c *recordingConn) Close() error              { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return nil, errors.New("tx not supported") }

func (c *recordingConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	if c.d.fail != "" && strings.Contains(query, c.d.fail) {
		return nil, errors.New("permission denied")
	}
	c.d.execs = append(c.d.execs, query)
	return driver.RowsAffected(0), nil
}

var (
	registerOnce sync.Once
	recorder     = &recordingDriver{}
)

func openRecorder(t *testing.T, fail string) *sql.DB {
	t.Helper()
	registerOnce.Do(func() { sql.Register("launcher-recorder", recorder) })
	recorder.mu.Lock()
	recorder.execs = nil
	recorder.fail = fail
	recorder.mu.Unlock()
	db, err := sql.Open("launcher-recorder", "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate(t *testing.T) {
	db := openRecorder(t, "")
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if len(recorder.execs) != len(schema) {
		t.Fatalf("executed %d statements, want %d", len(recorder.execs), len(schema))
	}
	if !strings.Contains(recorder.execs[0], "CREATE TABLE IF NOT EXISTS game_imports") {
		t.Errorf("first statement = %q", recorder.execs[0])
	}
}

func TestMigrate_StopsOnError(t *testing.T) {
	db := openRecorder(t, "CREATE INDEX")
	err := Migrate(context.Background(), db)
	if err == nil || !strings.Contains(err.Error(), "migrate step 2") {
		t.Fatalf("err = %v, want failure at step 2", err)
	}
}

func TestOpen_InvalidDSN(t *testing.T) {
	if _, err := Open(context.Background(), "postgres://%zz"); err == nil {
		t.Error("expected parse error")
	}
}

func TestGetDB_Unset(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	db, err := GetDB()
	if db != nil || err != nil {
		t.Errorf("GetDB() = %v, %v; want nil, nil", db, err)
	}
}
