package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/slot-scheduler/internal/config"
	"github.com/example/slot-scheduler/internal/infrastructure/sqlite"
	"go.uber.org/zap"
)

func TestOpenSQLite(t *testing.T) {
	t.Parallel()

	cfg := config.Config{DatabaseDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "nested", "slots.db")}
	st, err := Open(context.Background(), cfg, true, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	if _, ok := st.(*sqlite.Store); !ok {
		t.Fatalf("expected *sqlite.Store, got %T", st)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), config.Config{DatabaseDriver: "mysql"}, false, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
