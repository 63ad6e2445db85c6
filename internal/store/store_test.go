package store

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "worklog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLatestSnapshotEmpty(t *testing.T) {
	db := openTestDB(t)
	snap, err := db.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil, got %+v", snap)
	}
}

func TestSaveAndLoadSnapshots(t *testing.T) {
	db := openTestDB(t)

	first, err := db.SaveSnapshot("import", 1, `{"dataType":"Map","value":[]}`)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	second, err := db.SaveSnapshot("hours", 2, `{"dataType":"Map","value":[[2024]]}`)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if second <= first {
		t.Fatalf("ids not increasing: %d then %d", first, second)
	}

	latest, err := db.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if latest.ID != second || latest.Reason != "hours" || latest.Days != 2 || latest.Body != `{"dataType":"Map","value":[[2024]]}` {
		t.Fatalf("latest = %+v", latest)
	}
	if latest.CreatedAt.IsZero() {
		t.Error("created_at not parsed")
	}

	got, err := db.GetSnapshot(first)
	if err != nil || got == nil || got.Reason != "import" {
		t.Fatalf("GetSnapshot = %+v, %v", got, err)
	}
	if missing, err := db.GetSnapshot(999); err != nil || missing != nil {
		t.Fatalf("GetSnapshot(999) = %+v, %v", missing, err)
	}

	list, err := db.ListSnapshots(10)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(list) != 2 || list[0].ID != second || list[0].Body != "" {
		t.Fatalf("list = %+v", list)
	}
}

func TestPruneSnapshots(t *testing.T) {
	db := openTestDB(t)
	for i := 0; i < 5; i++ {
		if _, err := db.SaveSnapshot("import", i, "{}"); err != nil {
			t.Fatal(err)
		}
	}
	removed, err := db.PruneSnapshots(2)
	if err != nil {
		t.Fatalf("PruneSnapshots: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed %d, want 3", removed)
	}
	list, _ := db.ListSnapshots(10)
	if len(list) != 2 || list[0].Days != 4 || list[1].Days != 3 {
		t.Fatalf("remaining = %+v", list)
	}
}

func TestState(t *testing.T) {
	db := openTestDB(t)
	if v, err := db.GetState("cursor"); err != nil || v != "" {
		t.Fatalf("GetState on empty = %q, %v", v, err)
	}
	if err := db.SetState("cursor", "2024-03-01"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetState("cursor", "2024-03-02"); err != nil {
		t.Fatal(err)
	}
	if v, _ := db.GetState("cursor"); v != "2024-03-02" {
		t.Fatalf("GetState = %q", v)
	}
}
