// Package testutil provides test helpers for building seeded inboxes and
// message fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/storage"
)

// TestInbox is a migrated in-memory inbox.
type TestInbox struct {
	Storage  *storage.SQLiteStorage
	Messages []model.RawMessage
	t        *testing.T
}

// SetupTestInbox creates a new in-memory inbox seeded with msgs in the
// default box. It automatically handles migrations and cleanup.
//
// Example:
//
//	inbox := testutil.SetupTestInbox(t,
//		testutil.NewMessages().
//			Credit("1", "2,500.00").
//			Promo("2").
//			Build()...,
//	)
func SetupTestInbox(t *testing.T, msgs ...model.RawMessage) *TestInbox {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(msgs) > 0 {
		if _, err := store.SaveMessages(ctx, model.DefaultBox, msgs); err != nil {
			t.Fatalf("failed to seed messages: %v", err)
		}
	}

	return &TestInbox{
		Storage:  store,
		Messages: msgs,
		t:        t,
	}
}

// MustContain fails the test unless the message is still in the inbox.
func (in *TestInbox) MustContain(id string) {
	in.t.Helper()
	if _, err := in.Storage.GetMessage(context.Background(), id); err != nil {
		in.t.Fatalf("expected message %s in inbox: %v", id, err)
	}
}

// MustNotContain fails the test if the message is still in the inbox.
func (in *TestInbox) MustNotContain(id string) {
	in.t.Helper()
	if _, err := in.Storage.GetMessage(context.Background(), id); err == nil {
		in.t.Fatalf("expected message %s to be deleted", id)
	}
}
