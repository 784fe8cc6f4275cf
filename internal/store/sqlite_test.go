package store

import (
	"fmt"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSaveAndGetRun(t *testing.T) {
	db := newTestDB(t)

	run := &Run{
		SessionID:  "sess-1",
		Namespace:  "set1",
		Strategy:   "three-copies",
		Seed:       42,
		ShopsSeen:  17,
		Rerolls:    16,
		Purchases:  3,
		GoldSpent:  "35",
		HitsJSON:   `{"set1/warden":3}`,
		StopReason: "stop_called",
	}
	if err := db.SaveRun(run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if run.ID == "" {
		t.Fatal("SaveRun did not assign an id")
	}

	got, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.SessionID != run.SessionID || got.Strategy != run.Strategy ||
		got.ShopsSeen != run.ShopsSeen || got.GoldSpent != run.GoldSpent ||
		got.HitsJSON != run.HitsJSON || got.StopReason != run.StopReason {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, run)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}

	if _, err := db.GetRun("no-such-run"); err == nil {
		t.Error("GetRun returned a run for an unknown id")
	}
}

func TestListRunsFiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 7; i++ {
		ns := "set1"
		if i%2 == 1 {
			ns = "set2"
		}
		run := &Run{
			SessionID: fmt.Sprintf("sess-%d", i),
			Namespace: ns,
			Strategy:  "manual",
			GoldSpent: "0",
			HitsJSON:  "{}",
		}
		if err := db.SaveRun(run); err != nil {
			t.Fatal(err)
		}
	}

	list, err := db.ListRuns(RunsQuery{Namespace: "set1", Page: 1, PerPage: 3})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if list.TotalCount != 4 {
		t.Errorf("TotalCount = %d, want 4", list.TotalCount)
	}
	if len(list.Runs) != 3 {
		t.Errorf("page 1 has %d runs, want 3", len(list.Runs))
	}
	if list.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", list.TotalPages)
	}
	for _, run := range list.Runs {
		if run.Namespace != "set1" {
			t.Errorf("filter leaked run from %s", run.Namespace)
		}
	}

	page2, err := db.ListRuns(RunsQuery{Namespace: "set1", Page: 2, PerPage: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(page2.Runs) != 1 {
		t.Errorf("page 2 has %d runs, want 1", len(page2.Runs))
	}

	all, err := db.ListRuns(RunsQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if all.TotalCount != 7 {
		t.Errorf("unfiltered TotalCount = %d, want 7", all.TotalCount)
	}
	if all.Page != 1 || all.PerPage != 50 {
		t.Errorf("defaults not applied: page=%d perPage=%d", all.Page, all.PerPage)
	}
}

func TestSetDataCacheRoundTrip(t *testing.T) {
	db := newTestDB(t)

	if _, _, err := db.GetSetData("set1"); err == nil {
		t.Error("GetSetData returned data for an empty cache")
	}

	doc := []byte("namespace: set1\n")
	if err := db.PutSetData("set1", doc); err != nil {
		t.Fatalf("PutSetData: %v", err)
	}

	got, fetchedAt, err := db.GetSetData("set1")
	if err != nil {
		t.Fatalf("GetSetData: %v", err)
	}
	if string(got) != string(doc) {
		t.Errorf("cached data = %q", got)
	}
	if time.Since(fetchedAt) > time.Minute {
		t.Errorf("fetched_at = %v, not recent", fetchedAt)
	}

	// Upsert replaces.
	doc2 := []byte("namespace: set1\n# updated\n")
	if err := db.PutSetData("set1", doc2); err != nil {
		t.Fatal(err)
	}
	got, _, err = db.GetSetData("set1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(doc2) {
		t.Error("upsert did not replace the cached document")
	}
}
