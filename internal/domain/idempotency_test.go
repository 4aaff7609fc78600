package domain

import (
	"testing"
	"time"
)

func TestIdempotency_TableAndUniqueScope(t *testing.T) {
	db := newDomainDB(t)
	m := db.Migrator()

	if !m.HasTable(&Idempotency{}) {
		t.Fatalf("expected table %q to exist", Idempotency{}.TableName())
	}

	now := time.Now().UTC()

	// --------- Assert NOT NULL constraints by behavior (attempt NULL insert) ----------
	assertNullRejected := func(col string) {
		t.Helper()
		vals := []any{"x-" + col, "u1", "POST /recognitions", "k1", 201, []byte("{}"), now, now.Add(time.Hour)}
		names := []string{"id", "user_id", "scope", "key", "status", "body", "created_at", "expires_at"}
		for i, name := range names {
			if name == col {
				vals[i] = nil
			}
		}
		err := db.Exec(`INSERT INTO idempotency ("id","user_id","scope","key","status","body","created_at","expires_at")
		                VALUES (?,?,?,?,?,?,?,?)`, vals...).Error
		if err == nil {
			t.Fatalf("expected NOT NULL violation when inserting NULL into %q", col)
		}
	}
	for _, col := range []string{"user_id", "scope", "key", "status", "body", "expires_at"} {
		assertNullRejected(col)
	}

	rec := &Idempotency{
		ID:        "id-1",
		UserID:    "7",
		Scope:     "/api/v1/recognitions",
		Key:       "k1",
		Status:    201,
		Body:      []byte(`{"id":1}`),
		ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert valid: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Scope != rec.Scope || got.Status != 201 || string(got.Body) != `{"id":1}` {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be auto-populated")
	}

	// Same key on another scope is a distinct record.
	other := &Idempotency{ID: "id-2", UserID: "7", Scope: "/api/v2/recognitions/batch", Key: "k1", Status: 201, Body: []byte("{}"), ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("same key different scope should insert: %v", err)
	}

	dup := &Idempotency{ID: "id-3", UserID: "7", Scope: "/api/v1/recognitions", Key: "k1", Status: 201, Body: []byte("{}"), ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected UNIQUE violation on (user_id, scope, key)")
	}
}
