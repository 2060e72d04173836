package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.DBMaxOpenConns != 10 {
		t.Errorf("DBMaxOpenConns = %d, want 10", cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns != 5 {
		t.Errorf("DBMaxIdleConns = %d, want 5", cfg.DBMaxIdleConns)
	}
	if cfg.DBConnMaxLife != time.Hour {
		t.Errorf("DBConnMaxLife = %s, want 1h", cfg.DBConnMaxLife)
	}
	if cfg.SelectTimeout != 5*time.Second {
		t.Errorf("SelectTimeout = %s, want 5s", cfg.SelectTimeout)
	}
}

func TestLoadPoolOverrides(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "32")
	t.Setenv("DB_MAX_IDLE_CONNS", "8")
	t.Setenv("DB_CONN_MAX_LIFETIME", "30m")

	cfg := Load()
	if cfg.DBMaxOpenConns != 32 {
		t.Errorf("DBMaxOpenConns = %d, want 32", cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns != 8 {
		t.Errorf("DBMaxIdleConns = %d, want 8", cfg.DBMaxIdleConns)
	}
	if cfg.DBConnMaxLife != 30*time.Minute {
		t.Errorf("DBConnMaxLife = %s, want 30m", cfg.DBConnMaxLife)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "plenty")
	t.Setenv("DB_CONN_MAX_LIFETIME", "soon")

	cfg := Load()
	if cfg.DBMaxOpenConns != 10 {
		t.Errorf("DBMaxOpenConns = %d, want default 10 for unparseable value", cfg.DBMaxOpenConns)
	}
	if cfg.DBConnMaxLife != time.Hour {
		t.Errorf("DBConnMaxLife = %s, want default 1h for unparseable value", cfg.DBConnMaxLife)
	}
}
