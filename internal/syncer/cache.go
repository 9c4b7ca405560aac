package syncer

import (
	"sync"

	"boq/internal/models"
)

// Cache mirrors the four server-backed approval lists: confirmed shops,
// confirmed materials, and the two pending-approval lists. Lists are
// only ever replaced wholesale from a server response, never patched,
// so a refresh with unchanged server state is a no-op. Readers get
// copies; the internal slices never escape.
type Cache struct {
	mu               sync.RWMutex
	shops            []models.Shop
	materials        []models.Material
	pendingShops     []models.Shop
	pendingMaterials []models.Material
}

// NewCache returns an empty cache. Lists stay empty until the first
// successful refresh.
func NewCache() *Cache {
	return &Cache{}
}

// ReplaceShops swaps in the authoritative confirmed shop list.
func (c *Cache) ReplaceShops(shops []models.Shop) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shops = shops
}

// ReplaceMaterials swaps in the authoritative confirmed material list.
func (c *Cache) ReplaceMaterials(materials []models.Material) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.materials = materials
}

// ReplacePendingShops swaps in the authoritative pending-approval shop list.
func (c *Cache) ReplacePendingShops(shops []models.Shop) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingShops = shops
}

// ReplacePendingMaterials swaps in the authoritative pending-approval material list.
func (c *Cache) ReplacePendingMaterials(materials []models.Material) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingMaterials = materials
}

// Shops returns a copy of the confirmed shop list.
func (c *Cache) Shops() []models.Shop {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyShops(c.shops)
}

// Materials returns a copy of the confirmed material list.
func (c *Cache) Materials() []models.Material {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyMaterials(c.materials)
}

// PendingShops returns a copy of the pending-approval shop list.
func (c *Cache) PendingShops() []models.Shop {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyShops(c.pendingShops)
}

// PendingMaterials returns a copy of the pending-approval material list.
func (c *Cache) PendingMaterials() []models.Material {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyMaterials(c.pendingMaterials)
}

// RemoveShop drops a shop from both cached shop lists after a confirmed
// remote deletion.
func (c *Cache) RemoveShop(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shops = deleteShop(c.shops, id)
	c.pendingShops = deleteShop(c.pendingShops, id)
}

// RemoveMaterial drops a material from both cached material lists after
// a confirmed remote deletion.
func (c *Cache) RemoveMaterial(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.materials = deleteMaterial(c.materials, id)
	c.pendingMaterials = deleteMaterial(c.pendingMaterials, id)
}

func copyShops(in []models.Shop) []models.Shop {
	if in == nil {
		return nil
	}
	out := make([]models.Shop, len(in))
	copy(out, in)
	return out
}

func copyMaterials(in []models.Material) []models.Material {
	if in == nil {
		return nil
	}
	out := make([]models.Material, len(in))
	copy(out, in)
	return out
}

func deleteShop(shops []models.Shop, id string) []models.Shop {
	out := shops[:0]
	for _, s := range shops {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

func deleteMaterial(materials []models.Material, id string) []models.Material {
	out := materials[:0]
	for _, m := range materials {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
