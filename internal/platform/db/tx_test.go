package db

import (
	"context"
	"errors"
	"testing"
)

func TestWithTx_NoConnection(t *testing.T) {
	_, _, err := WithTx(context.Background())
	if err == nil || err.Error() != "no database connection in context" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactor_NoStore(t *testing.T) {
	called := false
	err := NewTransactor(nil).RunInTx(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if err == nil {
		t.Error("expected error without a pool or connection")
	}
	if called {
		t.Error("unit of work must not run without a transaction")
	}
}

func TestNoTx_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	if err := (NoTx{}).RunInTx(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}
