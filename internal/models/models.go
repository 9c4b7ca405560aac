package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityKind tags which submission family an item belongs to
type EntityKind string

const (
	KindShop     EntityKind = "shop"
	KindMaterial EntityKind = "material"
)

// ApprovalStatus represents where an entity sits in the review workflow
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// ShopDraft is the client-authored part of a shop, before the server
// has assigned it an identity
type ShopDraft struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Contact  string `json:"contact,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// MaterialDraft is the client-authored part of a material
type MaterialDraft struct {
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Unit     string  `json:"unit"`
	Rate     float64 `json:"rate"`
	Notes    string  `json:"notes,omitempty"`
}

// Shop is a server-confirmed shop
type Shop struct {
	ID string `json:"id"`
	ShopDraft
	Status          ApprovalStatus `json:"status"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Material is a server-confirmed material
type Material struct {
	ID string `json:"id"`
	MaterialDraft
	Status          ApprovalStatus `json:"status"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// QueuedSubmission is a draft parked locally because delivery failed.
// Exactly one payload pointer is set and it matches Kind. A queued
// submission never has a server id; once the server confirms it, the
// entry leaves the queue and the confirmed entity lives in the cache.
type QueuedSubmission struct {
	LocalID  string         `json:"local_id"`
	Kind     EntityKind     `json:"kind"`
	Shop     *ShopDraft     `json:"shop,omitempty"`
	Material *MaterialDraft `json:"material,omitempty"`
	QueuedAt time.Time      `json:"queued_at"`
}

// NewShopSubmission wraps a shop draft for queueing
func NewShopSubmission(d ShopDraft) QueuedSubmission {
	return QueuedSubmission{
		LocalID:  uuid.NewString(),
		Kind:     KindShop,
		Shop:     &d,
		QueuedAt: time.Now().UTC(),
	}
}

// NewMaterialSubmission wraps a material draft for queueing
func NewMaterialSubmission(d MaterialDraft) QueuedSubmission {
	return QueuedSubmission{
		LocalID:  uuid.NewString(),
		Kind:     KindMaterial,
		Material: &d,
		QueuedAt: time.Now().UTC(),
	}
}

// Label returns the human-readable name of the queued draft
func (q QueuedSubmission) Label() string {
	switch q.Kind {
	case KindShop:
		if q.Shop != nil {
			return q.Shop.Name
		}
	case KindMaterial:
		if q.Material != nil {
			return q.Material.Name
		}
	}
	return ""
}

// Validate checks that the union tag matches the payload that is set
func (q QueuedSubmission) Validate() error {
	if !IsValidKind(q.Kind) {
		return fmt.Errorf("invalid submission kind: %q", q.Kind)
	}
	if q.Kind == KindShop && (q.Shop == nil || q.Material != nil) {
		return fmt.Errorf("shop submission must carry exactly a shop draft")
	}
	if q.Kind == KindMaterial && (q.Material == nil || q.Shop != nil) {
		return fmt.Errorf("material submission must carry exactly a material draft")
	}
	return nil
}

// IsValidKind checks if an entity kind is valid
func IsValidKind(k EntityKind) bool {
	switch k {
	case KindShop, KindMaterial:
		return true
	}
	return false
}

// IsValidStatus checks if an approval status is valid
func IsValidStatus(s ApprovalStatus) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// NormalizeKind converts alternate kind spellings to canonical form
// Accepts: "shops", "materials" and the short aliases "s", "m"
func NormalizeKind(k string) EntityKind {
	switch k {
	case "shops", "s":
		return KindShop
	case "materials", "m":
		return KindMaterial
	default:
		return EntityKind(k)
	}
}

// ValidateShopDraft checks the fields a shop submission must carry
func ValidateShopDraft(d ShopDraft) error {
	if d.Name == "" {
		return fmt.Errorf("shop name is required")
	}
	if d.Location == "" {
		return fmt.Errorf("shop location is required")
	}
	return nil
}

// ValidateMaterialDraft checks the fields a material submission must carry
func ValidateMaterialDraft(d MaterialDraft) error {
	if d.Name == "" {
		return fmt.Errorf("material name is required")
	}
	if d.Unit == "" {
		return fmt.Errorf("material unit is required")
	}
	if d.Rate < 0 {
		return fmt.Errorf("material rate cannot be negative")
	}
	return nil
}
