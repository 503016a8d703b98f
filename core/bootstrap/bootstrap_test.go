package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/avatarbot/core/config"
	coredatabase "github.com/m3rciful/avatarbot/core/database"
)

func TestRunWithoutDatabase(t *testing.T) {
	loggerCalls := 0
	connectCalled := false
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { loggerCalls++; return nil },
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			connectCalled = true
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if loggerCalls != 1 || connectCalled {
		t.Fatalf("logger=%d connect=%v", loggerCalls, connectCalled)
	}
	if res.DB != nil {
		t.Fatal("expected nil DB")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunPropagatesFailures(t *testing.T) {
	if _, err := Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}

	boom := errors.New("boom")
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected logger error, got %v", err)
	}

	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{Host: "h", Name: "n", User: "u"},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return nil, boom
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected connect error, got %v", err)
	}
}
