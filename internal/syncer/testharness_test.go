package syncer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"boq/internal/models"
	"boq/internal/queue"
)

// fakeApprovalServer is an in-memory approval server. It keeps the four
// server-side lists, moves entities between them on decisions, and can
// be told to fail specific operation classes.
type fakeApprovalServer struct {
	mu sync.Mutex

	shops            []models.Shop
	pendingShops     []models.Shop
	materials        []models.Material
	pendingMaterials []models.Material

	nextID      int
	requireAuth bool
	token       string

	failCreates   bool
	failLists     bool
	failDecisions bool
	failDeletes   bool
	failNames     map[string]bool // creates of drafts with these names fail

	onCreate func() // runs at the top of every create request

	totalRequests int
	createOrder   []string       // draft names, in arrival order
	listFetches   map[string]int // path -> fetch count
}

func newFakeApprovalServer(t *testing.T) (*fakeApprovalServer, *httptest.Server) {
	t.Helper()
	f := &fakeApprovalServer{listFetches: make(map[string]int)}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

// newTestSyncer builds a syncer over a fresh queue store with an
// isolated config dir and a token in the environment.
func newTestSyncer(t *testing.T, url string, cooldown time.Duration, maxAttempts int) *Syncer {
	t.Helper()
	t.Setenv("BOQ_CONFIG_DIR", t.TempDir())
	t.Setenv("BOQ_TOKEN", "test-token")

	store, err := queue.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open queue store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return New(url, store, cooldown, maxAttempts)
}

func (f *fakeApprovalServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.totalRequests++
	requireAuth, token := f.requireAuth, f.token
	f.mu.Unlock()

	if requireAuth && r.Header.Get("Authorization") != "Bearer "+token {
		writeAPIError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
		return
	}

	path := r.URL.Path
	switch {
	case path == "/healthz":
		writeJSON(w, map[string]string{"status": "ok"})
	case r.Method == http.MethodGet &&
		(path == "/shops" || path == "/shops-pending-approval" ||
			path == "/materials" || path == "/materials-pending-approval"):
		f.handleList(w, path)
	case r.Method == http.MethodPost && path == "/shops":
		f.handleCreateShop(w, r)
	case r.Method == http.MethodPost && path == "/materials":
		f.handleCreateMaterial(w, r)
	case strings.HasPrefix(path, "/shops/"):
		f.handleShopItem(w, r, strings.TrimPrefix(path, "/shops/"))
	case strings.HasPrefix(path, "/materials/"):
		f.handleMaterialItem(w, r, strings.TrimPrefix(path, "/materials/"))
	default:
		writeAPIError(w, http.StatusNotFound, "not_found", "no such route")
	}
}

func (f *fakeApprovalServer) handleList(w http.ResponseWriter, path string) {
	f.mu.Lock()
	f.listFetches[path]++
	fail := f.failLists
	var payload any
	switch path {
	case "/shops":
		payload = map[string][]models.Shop{"shops": append([]models.Shop(nil), f.shops...)}
	case "/shops-pending-approval":
		payload = map[string][]models.Shop{"shops": append([]models.Shop(nil), f.pendingShops...)}
	case "/materials":
		payload = map[string][]models.Material{"materials": append([]models.Material(nil), f.materials...)}
	case "/materials-pending-approval":
		payload = map[string][]models.Material{"materials": append([]models.Material(nil), f.pendingMaterials...)}
	}
	f.mu.Unlock()

	if fail {
		writeAPIError(w, http.StatusInternalServerError, "internal", "list unavailable")
		return
	}
	writeJSON(w, payload)
}

func (f *fakeApprovalServer) handleCreateShop(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	hook := f.onCreate
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	var d models.ShopDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeAPIError(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}

	f.mu.Lock()
	f.createOrder = append(f.createOrder, d.Name)
	if f.failCreates || f.failNames[d.Name] {
		f.mu.Unlock()
		writeAPIError(w, http.StatusInternalServerError, "internal", "create unavailable")
		return
	}
	f.nextID++
	shop := models.Shop{
		ID:        fmt.Sprintf("shp-%06d", f.nextID),
		ShopDraft: d,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	f.pendingShops = append(f.pendingShops, shop)
	f.mu.Unlock()

	writeJSON(w, map[string]models.Shop{"shop": shop})
}

func (f *fakeApprovalServer) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	hook := f.onCreate
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	var d models.MaterialDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeAPIError(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}

	f.mu.Lock()
	f.createOrder = append(f.createOrder, d.Name)
	if f.failCreates || f.failNames[d.Name] {
		f.mu.Unlock()
		writeAPIError(w, http.StatusInternalServerError, "internal", "create unavailable")
		return
	}
	f.nextID++
	material := models.Material{
		ID:            fmt.Sprintf("mat-%06d", f.nextID),
		MaterialDraft: d,
		Status:        models.StatusPending,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	f.pendingMaterials = append(f.pendingMaterials, material)
	f.mu.Unlock()

	writeJSON(w, map[string]models.Material{"material": material})
}

func (f *fakeApprovalServer) handleShopItem(w http.ResponseWriter, r *http.Request, rest string) {
	switch {
	case r.Method == http.MethodDelete:
		f.mu.Lock()
		fail := f.failDeletes
		if !fail {
			f.shops = removeShopByID(f.shops, rest)
			f.pendingShops = removeShopByID(f.pendingShops, rest)
		}
		f.mu.Unlock()
		if fail {
			writeAPIError(w, http.StatusInternalServerError, "internal", "delete unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPost && strings.HasSuffix(rest, "/approve"):
		id := strings.TrimSuffix(rest, "/approve")
		f.mu.Lock()
		fail := f.failDecisions
		if !fail {
			for i := range f.pendingShops {
				if f.pendingShops[i].ID == id {
					shop := f.pendingShops[i]
					shop.Status = models.StatusApproved
					f.shops = append(f.shops, shop)
					f.pendingShops = append(f.pendingShops[:i], f.pendingShops[i+1:]...)
					break
				}
			}
		}
		f.mu.Unlock()
		if fail {
			writeAPIError(w, http.StatusInternalServerError, "internal", "decision unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPost && strings.HasSuffix(rest, "/reject"):
		id := strings.TrimSuffix(rest, "/reject")
		var body struct {
			Reason string `json:"reason"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		fail := f.failDecisions
		if !fail {
			for i := range f.pendingShops {
				if f.pendingShops[i].ID == id {
					f.pendingShops[i].Status = models.StatusRejected
					f.pendingShops[i].RejectionReason = body.Reason
					break
				}
			}
		}
		f.mu.Unlock()
		if fail {
			writeAPIError(w, http.StatusInternalServerError, "internal", "decision unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)

	default:
		writeAPIError(w, http.StatusNotFound, "not_found", "no such route")
	}
}

func (f *fakeApprovalServer) handleMaterialItem(w http.ResponseWriter, r *http.Request, rest string) {
	switch {
	case r.Method == http.MethodDelete:
		f.mu.Lock()
		fail := f.failDeletes
		if !fail {
			f.materials = removeMaterialByID(f.materials, rest)
			f.pendingMaterials = removeMaterialByID(f.pendingMaterials, rest)
		}
		f.mu.Unlock()
		if fail {
			writeAPIError(w, http.StatusInternalServerError, "internal", "delete unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPost && strings.HasSuffix(rest, "/approve"):
		id := strings.TrimSuffix(rest, "/approve")
		f.mu.Lock()
		fail := f.failDecisions
		if !fail {
			for i := range f.pendingMaterials {
				if f.pendingMaterials[i].ID == id {
					material := f.pendingMaterials[i]
					material.Status = models.StatusApproved
					f.materials = append(f.materials, material)
					f.pendingMaterials = append(f.pendingMaterials[:i], f.pendingMaterials[i+1:]...)
					break
				}
			}
		}
		f.mu.Unlock()
		if fail {
			writeAPIError(w, http.StatusInternalServerError, "internal", "decision unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPost && strings.HasSuffix(rest, "/reject"):
		id := strings.TrimSuffix(rest, "/reject")
		var body struct {
			Reason string `json:"reason"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		fail := f.failDecisions
		if !fail {
			for i := range f.pendingMaterials {
				if f.pendingMaterials[i].ID == id {
					f.pendingMaterials[i].Status = models.StatusRejected
					f.pendingMaterials[i].RejectionReason = body.Reason
					break
				}
			}
		}
		f.mu.Unlock()
		if fail {
			writeAPIError(w, http.StatusInternalServerError, "internal", "decision unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)

	default:
		writeAPIError(w, http.StatusNotFound, "not_found", "no such route")
	}
}

// --- seeding and introspection ---

func (f *fakeApprovalServer) seedConfirmedShop(name string) models.Shop {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	shop := models.Shop{
		ID:        fmt.Sprintf("shp-%06d", f.nextID),
		ShopDraft: models.ShopDraft{Name: name, Location: "Dhaka"},
		Status:    models.StatusApproved,
	}
	f.shops = append(f.shops, shop)
	return shop
}

func (f *fakeApprovalServer) seedPendingShop(name string) models.Shop {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	shop := models.Shop{
		ID:        fmt.Sprintf("shp-%06d", f.nextID),
		ShopDraft: models.ShopDraft{Name: name, Location: "Dhaka"},
		Status:    models.StatusPending,
	}
	f.pendingShops = append(f.pendingShops, shop)
	return shop
}

func (f *fakeApprovalServer) seedPendingMaterial(name string) models.Material {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	material := models.Material{
		ID:            fmt.Sprintf("mat-%06d", f.nextID),
		MaterialDraft: models.MaterialDraft{Name: name, Unit: "kg", Rate: 1},
		Status:        models.StatusPending,
	}
	f.pendingMaterials = append(f.pendingMaterials, material)
	return material
}

func (f *fakeApprovalServer) setFailCreates(v bool) {
	f.mu.Lock()
	f.failCreates = v
	f.mu.Unlock()
}

func (f *fakeApprovalServer) setFailLists(v bool) {
	f.mu.Lock()
	f.failLists = v
	f.mu.Unlock()
}

func (f *fakeApprovalServer) setFailDecisions(v bool) {
	f.mu.Lock()
	f.failDecisions = v
	f.mu.Unlock()
}

func (f *fakeApprovalServer) setFailDeletes(v bool) {
	f.mu.Lock()
	f.failDeletes = v
	f.mu.Unlock()
}

func (f *fakeApprovalServer) setFailNames(names ...string) {
	f.mu.Lock()
	f.failNames = make(map[string]bool, len(names))
	for _, name := range names {
		f.failNames[name] = true
	}
	f.mu.Unlock()
}

func (f *fakeApprovalServer) setAuth(token string) {
	f.mu.Lock()
	f.requireAuth = true
	f.token = token
	f.mu.Unlock()
}

func (f *fakeApprovalServer) setOnCreate(fn func()) {
	f.mu.Lock()
	f.onCreate = fn
	f.mu.Unlock()
}

func (f *fakeApprovalServer) requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalRequests
}

func (f *fakeApprovalServer) createNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.createOrder...)
}

func (f *fakeApprovalServer) listCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listFetches[path]
}

func removeShopByID(shops []models.Shop, id string) []models.Shop {
	out := shops[:0]
	for _, s := range shops {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

func removeMaterialByID(materials []models.Material, id string) []models.Material {
	out := materials[:0]
	for _, m := range materials {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
}
