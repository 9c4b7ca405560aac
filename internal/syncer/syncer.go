package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"boq/internal/creds"
	"boq/internal/gateway"
	"boq/internal/models"
	"boq/internal/queue"
)

// Syncer owns the approval state cache, the durable submission queue,
// and the flush engine's session state. It is the only write path the
// command layer sees; everything it shows the user is either a server
// response or a full re-fetch, never an optimistic local edit.
type Syncer struct {
	baseURL string
	http    *http.Client
	store   *queue.Store
	cache   *Cache

	cooldown    time.Duration
	maxAttempts int

	flushState
}

// New creates a synchronizer over the given queue store. cooldown and
// maxAttempts set the flush gate policy for this process.
func New(baseURL string, store *queue.Store, cooldown time.Duration, maxAttempts int) *Syncer {
	return &Syncer{
		baseURL:     baseURL,
		http:        &http.Client{Timeout: 30 * time.Second},
		store:       store,
		cache:       NewCache(),
		cooldown:    cooldown,
		maxAttempts: maxAttempts,
	}
}

// client builds a gateway client carrying the current token. The token
// is re-read every time so a login or logout in another terminal takes
// effect on the next call.
func (s *Syncer) client() *gateway.Client {
	return &gateway.Client{BaseURL: s.baseURL, Token: creds.Token(), HTTP: s.http}
}

// --- Submission façade ---

// Receipt reports the local fate of a submission that fell back to the
// queue: where it is parked, and whether the flush kicked off right
// after enqueueing already delivered it.
type Receipt struct {
	LocalID   string
	Delivered bool
}

// SubmitShop submits a shop draft for approval. On delivery failure the
// draft is queued durably and (nil, receipt, nil) is returned: queued-
// but-not-confirmed is a success mode, not an error. Only a failure to
// persist the queue entry itself surfaces as an error.
func (s *Syncer) SubmitShop(ctx context.Context, d models.ShopDraft) (*models.Shop, *Receipt, error) {
	shop, err := s.submitShopOnce(ctx, d)
	if err != nil {
		slog.Debug("shop submission failed, queueing", "name", d.Name, "err", err)
		sub := models.NewShopSubmission(d)
		if qerr := s.store.Enqueue(ctx, sub); qerr != nil {
			return nil, nil, fmt.Errorf("queue shop submission: %w", qerr)
		}
		return nil, s.retryReceipt(ctx, sub.LocalID), nil
	}
	return shop, nil, nil
}

// SubmitMaterial submits a material draft for approval, with the same
// queue fallback as SubmitShop.
func (s *Syncer) SubmitMaterial(ctx context.Context, d models.MaterialDraft) (*models.Material, *Receipt, error) {
	material, err := s.submitMaterialOnce(ctx, d)
	if err != nil {
		slog.Debug("material submission failed, queueing", "name", d.Name, "err", err)
		sub := models.NewMaterialSubmission(d)
		if qerr := s.store.Enqueue(ctx, sub); qerr != nil {
			return nil, nil, fmt.Errorf("queue material submission: %w", qerr)
		}
		return nil, s.retryReceipt(ctx, sub.LocalID), nil
	}
	return material, nil, nil
}

// retryReceipt kicks the post-enqueue flush and reports whether that
// immediate retry already landed the draft, so callers do not announce
// "queued for later" about an entry the server has accepted.
func (s *Syncer) retryReceipt(ctx context.Context, localID string) *Receipt {
	r := &Receipt{LocalID: localID}
	res, err := s.MaybeFlush(ctx)
	if err != nil || !res.Flushed() {
		return r
	}
	queued, err := s.store.Has(ctx, localID)
	if err != nil {
		slog.Debug("check queued submission after retry", "local_id", localID, "err", err)
		return r
	}
	r.Delivered = !queued
	return r
}

// submitShopOnce is the single delivery attempt both the façade and the
// flush drain use: one POST, then a re-sync of both of the kind's lists
// on success. The accepted entity starts out pending, so it surfaces in
// the pending-approval list, not the confirmed one.
func (s *Syncer) submitShopOnce(ctx context.Context, d models.ShopDraft) (*models.Shop, error) {
	shop, err := s.client().CreateShop(ctx, d)
	if err != nil {
		return nil, err
	}
	s.resyncKind(ctx, models.KindShop)
	return shop, nil
}

func (s *Syncer) submitMaterialOnce(ctx context.Context, d models.MaterialDraft) (*models.Material, error) {
	material, err := s.client().CreateMaterial(ctx, d)
	if err != nil {
		return nil, err
	}
	s.resyncKind(ctx, models.KindMaterial)
	return material, nil
}

// Approve marks a pending entity approved. The kind's lists are
// re-fetched wholesale whether or not the remote call succeeded; the
// remote error, if any, is propagated. Nothing is patched locally.
func (s *Syncer) Approve(ctx context.Context, kind models.EntityKind, id string) error {
	var err error
	switch kind {
	case models.KindShop:
		err = s.client().ApproveShop(ctx, id)
	case models.KindMaterial:
		err = s.client().ApproveMaterial(ctx, id)
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	s.resyncKind(ctx, kind)
	if err != nil {
		return fmt.Errorf("approve %s %s: %w", kind, id, err)
	}
	return nil
}

// Reject marks a pending entity rejected with a reason. Re-fetch and
// error semantics match Approve.
func (s *Syncer) Reject(ctx context.Context, kind models.EntityKind, id, reason string) error {
	var err error
	switch kind {
	case models.KindShop:
		err = s.client().RejectShop(ctx, id, reason)
	case models.KindMaterial:
		err = s.client().RejectMaterial(ctx, id, reason)
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	s.resyncKind(ctx, kind)
	if err != nil {
		return fmt.Errorf("reject %s %s: %w", kind, id, err)
	}
	return nil
}

// Delete removes a confirmed entity. On success the entity is dropped
// from the cached lists; on failure the kind is re-synced from the
// server so the cache cannot keep claiming a deletion that never
// happened, and the error is propagated.
func (s *Syncer) Delete(ctx context.Context, kind models.EntityKind, id string) error {
	var err error
	switch kind {
	case models.KindShop:
		err = s.client().DeleteShop(ctx, id)
	case models.KindMaterial:
		err = s.client().DeleteMaterial(ctx, id)
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	if err != nil {
		s.resyncKind(ctx, kind)
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	switch kind {
	case models.KindShop:
		s.cache.RemoveShop(id)
	case models.KindMaterial:
		s.cache.RemoveMaterial(id)
	}
	return nil
}

// --- Cache refresh ---

// Each refresher replaces one list wholesale. A failed fetch is logged
// and the previous value kept; a stale list beats a broken one. The
// error is still returned so interactive callers can warn.

func (s *Syncer) refreshShops(ctx context.Context) error {
	shops, err := s.client().ListShops(ctx)
	if err != nil {
		slog.Warn("refresh shops failed, keeping cached list", "err", err)
		return err
	}
	s.cache.ReplaceShops(shops)
	return nil
}

func (s *Syncer) refreshMaterials(ctx context.Context) error {
	materials, err := s.client().ListMaterials(ctx)
	if err != nil {
		slog.Warn("refresh materials failed, keeping cached list", "err", err)
		return err
	}
	s.cache.ReplaceMaterials(materials)
	return nil
}

func (s *Syncer) refreshPendingShops(ctx context.Context) error {
	shops, err := s.client().ListPendingShops(ctx)
	if err != nil {
		slog.Warn("refresh pending shops failed, keeping cached list", "err", err)
		return err
	}
	s.cache.ReplacePendingShops(shops)
	return nil
}

func (s *Syncer) refreshPendingMaterials(ctx context.Context) error {
	materials, err := s.client().ListPendingMaterials(ctx)
	if err != nil {
		slog.Warn("refresh pending materials failed, keeping cached list", "err", err)
		return err
	}
	s.cache.ReplacePendingMaterials(materials)
	return nil
}

// resyncKind force-refreshes both lists of one kind. Used after
// approval decisions and failed deletions; failures are already logged
// by the refreshers and the stale lists stay.
func (s *Syncer) resyncKind(ctx context.Context, kind models.EntityKind) {
	switch kind {
	case models.KindShop:
		s.refreshShops(ctx)
		s.refreshPendingShops(ctx)
	case models.KindMaterial:
		s.refreshMaterials(ctx)
		s.refreshPendingMaterials(ctx)
	}
}

// RefreshAll re-fetches all four lists, returning the first error after
// attempting every list.
func (s *Syncer) RefreshAll(ctx context.Context) error {
	var first error
	for _, fn := range []func(context.Context) error{
		s.refreshShops,
		s.refreshMaterials,
		s.refreshPendingShops,
		s.refreshPendingMaterials,
	} {
		if err := fn(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RefreshKind re-fetches the confirmed and pending lists of one kind,
// returning the first error after attempting both.
func (s *Syncer) RefreshKind(ctx context.Context, kind models.EntityKind) error {
	var first error
	fns := []func(context.Context) error{s.refreshShops, s.refreshPendingShops}
	if kind == models.KindMaterial {
		fns = []func(context.Context) error{s.refreshMaterials, s.refreshPendingMaterials}
	}
	for _, fn := range fns {
		if err := fn(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// --- Cache reads ---

// Shops returns the cached confirmed shop list.
func (s *Syncer) Shops() []models.Shop { return s.cache.Shops() }

// Materials returns the cached confirmed material list.
func (s *Syncer) Materials() []models.Material { return s.cache.Materials() }

// PendingShops returns the cached pending-approval shop list.
func (s *Syncer) PendingShops() []models.Shop { return s.cache.PendingShops() }

// PendingMaterials returns the cached pending-approval material list.
func (s *Syncer) PendingMaterials() []models.Material { return s.cache.PendingMaterials() }

// --- Queue reads ---

// Queued returns every parked submission in enqueue order.
func (s *Syncer) Queued(ctx context.Context) ([]models.QueuedSubmission, error) {
	return s.store.All(ctx)
}

// QueueCounts returns pending queue counts per kind.
func (s *Syncer) QueueCounts(ctx context.Context) (map[models.EntityKind]int, error) {
	return s.store.CountByKind(ctx)
}

// DropQueued discards one parked submission without sending it.
func (s *Syncer) DropQueued(ctx context.Context, localID string) (bool, error) {
	return s.store.Drop(ctx, localID)
}
