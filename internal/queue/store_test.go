package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"boq/internal/models"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func enqueueShop(t *testing.T, store *Store, name string) models.QueuedSubmission {
	t.Helper()
	sub := models.NewShopSubmission(models.ShopDraft{Name: name, Location: "Dhaka"})
	if err := store.Enqueue(context.Background(), sub); err != nil {
		t.Fatalf("Enqueue shop %s: %v", name, err)
	}
	return sub
}

func enqueueMaterial(t *testing.T, store *Store, name string) models.QueuedSubmission {
	t.Helper()
	sub := models.NewMaterialSubmission(models.MaterialDraft{Name: name, Unit: "kg", Rate: 10})
	if err := store.Enqueue(context.Background(), sub); err != nil {
		t.Fatalf("Enqueue material %s: %v", name, err)
	}
	return sub
}

func TestOpenCreatesDatabase(t *testing.T) {
	_, dir := openTestStore(t)

	if _, err := os.Stat(filepath.Join(dir, dbFile)); os.IsNotExist(err) {
		t.Error("queue database file not created")
	}
}

func TestEnqueueAndPendingOrder(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	s1 := enqueueShop(t, store, "Shop One")
	m1 := enqueueMaterial(t, store, "Cement")
	s2 := enqueueShop(t, store, "Shop Two")
	s3 := enqueueShop(t, store, "Shop Three")
	m2 := enqueueMaterial(t, store, "Sand")

	shops, err := store.Pending(ctx, models.KindShop)
	if err != nil {
		t.Fatalf("Pending shops: %v", err)
	}
	if len(shops) != 3 {
		t.Fatalf("Pending shops count = %d, want 3", len(shops))
	}
	for i, want := range []models.QueuedSubmission{s1, s2, s3} {
		if shops[i].LocalID != want.LocalID {
			t.Errorf("shop[%d] = %s, want %s", i, shops[i].LocalID, want.LocalID)
		}
	}
	if shops[0].Shop == nil || shops[0].Shop.Name != "Shop One" {
		t.Error("shop draft payload not preserved")
	}
	if shops[0].QueuedAt.IsZero() {
		t.Error("QueuedAt not preserved")
	}

	materials, err := store.Pending(ctx, models.KindMaterial)
	if err != nil {
		t.Fatalf("Pending materials: %v", err)
	}
	if len(materials) != 2 {
		t.Fatalf("Pending materials count = %d, want 2", len(materials))
	}
	if materials[0].LocalID != m1.LocalID || materials[1].LocalID != m2.LocalID {
		t.Error("materials out of enqueue order")
	}
	if materials[0].Material == nil || materials[0].Material.Rate != 10 {
		t.Error("material draft payload not preserved")
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("All count = %d, want 5", len(all))
	}
	wantOrder := []string{s1.LocalID, m1.LocalID, s2.LocalID, s3.LocalID, m2.LocalID}
	for i, want := range wantOrder {
		if all[i].LocalID != want {
			t.Errorf("all[%d] = %s, want %s", i, all[i].LocalID, want)
		}
	}
}

func TestEnqueueRejectsMismatchedUnion(t *testing.T) {
	store, _ := openTestStore(t)

	bad := models.QueuedSubmission{
		LocalID: "local-1",
		Kind:    models.KindShop,
		// no payload at all
	}
	if err := store.Enqueue(context.Background(), bad); err == nil {
		t.Error("expected error for shop submission without shop draft")
	}
}

func TestRemoveLanded(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	s1 := enqueueShop(t, store, "One")
	s2 := enqueueShop(t, store, "Two")
	s3 := enqueueShop(t, store, "Three")
	s4 := enqueueShop(t, store, "Four")

	if err := store.RemoveLanded(ctx, []string{s1.LocalID, s3.LocalID}); err != nil {
		t.Fatalf("RemoveLanded: %v", err)
	}

	remaining, err := store.Pending(ctx, models.KindShop)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("remaining = %d, want 2", len(remaining))
	}
	if remaining[0].LocalID != s2.LocalID || remaining[1].LocalID != s4.LocalID {
		t.Error("retained entries lost their relative order")
	}

	// Empty set is a no-op
	if err := store.RemoveLanded(ctx, nil); err != nil {
		t.Errorf("RemoveLanded(nil): %v", err)
	}
}

func TestRemoveLandedKeepsNewArrivals(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	a := enqueueShop(t, store, "A")
	b := enqueueShop(t, store, "B")

	// A flush pass reads its batch...
	batch, err := store.Pending(ctx, models.KindShop)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("batch = %d, want 2", len(batch))
	}

	// ...a new submission lands while the pass is delivering...
	c := enqueueShop(t, store, "C")

	// ...and removing the delivered batch must not touch it.
	if err := store.RemoveLanded(ctx, []string{a.LocalID, b.LocalID}); err != nil {
		t.Fatalf("RemoveLanded: %v", err)
	}

	remaining, err := store.Pending(ctx, models.KindShop)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(remaining) != 1 || remaining[0].LocalID != c.LocalID {
		t.Errorf("expected only the mid-pass arrival to remain, got %d entries", len(remaining))
	}
}

func TestDrop(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	sub := enqueueShop(t, store, "Dropme")

	dropped, err := store.Drop(ctx, sub.LocalID)
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if !dropped {
		t.Error("Drop returned false for existing entry")
	}

	dropped, err = store.Drop(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("Drop missing: %v", err)
	}
	if dropped {
		t.Error("Drop returned true for missing entry")
	}
}

func TestHas(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	sub := enqueueShop(t, store, "Here")

	queued, err := store.Has(ctx, sub.LocalID)
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !queued {
		t.Error("Has returned false for a queued submission")
	}

	if queued, err := store.Has(ctx, "no-such-id"); err != nil || queued {
		t.Errorf("Has(missing) = %v, %v, want false, nil", queued, err)
	}

	if err := store.RemoveLanded(ctx, []string{sub.LocalID}); err != nil {
		t.Fatalf("RemoveLanded: %v", err)
	}
	if queued, err := store.Has(ctx, sub.LocalID); err != nil || queued {
		t.Errorf("Has after RemoveLanded = %v, %v, want false, nil", queued, err)
	}
}

func TestCountByKind(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	counts, err := store.CountByKind(ctx)
	if err != nil {
		t.Fatalf("CountByKind: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("empty queue counts = %v, want empty map", counts)
	}

	enqueueShop(t, store, "One")
	enqueueShop(t, store, "Two")
	enqueueMaterial(t, store, "Cement")

	counts, err = store.CountByKind(ctx)
	if err != nil {
		t.Fatalf("CountByKind: %v", err)
	}
	if counts[models.KindShop] != 2 {
		t.Errorf("shop count = %d, want 2", counts[models.KindShop])
	}
	if counts[models.KindMaterial] != 1 {
		t.Errorf("material count = %d, want 1", counts[models.KindMaterial])
	}
}

func TestReopenPersistence(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	sub := enqueueShop(t, store, "Survivor")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	pending, err := reopened.Pending(context.Background(), models.KindShop)
	if err != nil {
		t.Fatalf("Pending after reopen: %v", err)
	}
	if len(pending) != 1 || pending[0].LocalID != sub.LocalID {
		t.Error("queued submission did not survive reopen")
	}
	if pending[0].Shop == nil || pending[0].Shop.Name != "Survivor" {
		t.Error("payload did not survive reopen")
	}
}

// Raw-row checks go through mattn/go-sqlite3 so they cannot share any
// serialization quirks with the modernc driver the store itself uses.
func TestRawRowShape(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	sub := enqueueShop(t, store, "Raw Shop")
	enqueueMaterial(t, store, "Raw Material")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := sql.Open("sqlite3", filepath.Join(dir, dbFile))
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	defer raw.Close()

	rows, err := raw.Query(`SELECT seq, local_id, kind, payload FROM queued_submissions ORDER BY seq`)
	if err != nil {
		t.Fatalf("query raw rows: %v", err)
	}
	defer rows.Close()

	var seqs []int64
	var kinds []string
	for rows.Next() {
		var seq int64
		var localID, kind, payload string
		if err := rows.Scan(&seq, &localID, &kind, &payload); err != nil {
			t.Fatalf("scan: %v", err)
		}
		seqs = append(seqs, seq)
		kinds = append(kinds, kind)

		// Payload is a snapshot of the draft alone: no local id, no
		// status, no server-assigned fields.
		var decoded map[string]any
		if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
			t.Fatalf("payload not JSON: %v", err)
		}
		for _, forbidden := range []string{"local_id", "id", "status"} {
			if _, ok := decoded[forbidden]; ok {
				t.Errorf("payload carries %q field: %s", forbidden, payload)
			}
		}
		if kind == "shop" && localID != sub.LocalID {
			t.Errorf("shop row local_id = %s, want %s", localID, sub.LocalID)
		}
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}

	if len(seqs) != 2 {
		t.Fatalf("raw rows = %d, want 2", len(seqs))
	}
	if seqs[1] <= seqs[0] {
		t.Error("seq values not monotonically increasing")
	}
	if kinds[0] != "shop" || kinds[1] != "material" {
		t.Errorf("kinds = %v, want [shop material]", kinds)
	}
}

func TestRefusesNewerSchema(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := sql.Open("sqlite3", filepath.Join(dir, dbFile))
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	_, err = raw.Exec(`UPDATE schema_info SET value = ? WHERE key = 'version'`,
		fmt.Sprintf("%d", SchemaVersion+1))
	raw.Close()
	if err != nil {
		t.Fatalf("bump version: %v", err)
	}

	if _, err := Open(dir); err == nil {
		t.Error("expected Open to refuse a newer schema version")
	}
}
