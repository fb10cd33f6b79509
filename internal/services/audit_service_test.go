package services

import (
	"testing"

	"equity/internal/models"
	"equity/internal/testutil"
)

func TestAuditService_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	user := testutil.CreateTestUser(t, db)
	svc.Log(user.ID, AuditCreateAsset, "asset", "asset-1", "127.0.0.1", map[string]interface{}{"name": "Apple"})
	svc.Log(user.ID, AuditDeleteAsset, "asset", "asset-1", "127.0.0.1", nil)

	var entries []models.AuditLog
	if err := db.Where("user_id = ?", user.ID).Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("query audit logs: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	if entries[0].Action != AuditCreateAsset || entries[0].Changes != `{"name":"Apple"}` {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Changes != "" {
		t.Errorf("expected empty changes, got %q", entries[1].Changes)
	}
}

func TestAuditService_LogFailureDoesNotPanic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewAuditService(db)
	testutil.TeardownTestDB(t, db)

	svc.Log("user", AuditRegister, "user", "user", "127.0.0.1", map[string]interface{}{"bad": make(chan int)})
}
