package catalog

import (
	"mime/multipart"
	"time"
)

// Record is one content item row. Pointer fields are nil for columns a
// content type does not carry (see Descriptor).
type Record struct {
	ID          int64        `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description *string      `db:"description" json:"description,omitempty"`
	Price       *string      `db:"price" json:"price,omitempty"`
	Category    *string      `db:"category" json:"category,omitempty"`
	Slot        *string      `db:"slot" json:"slot,omitempty"`
	ImageURL    *string      `db:"image_url" json:"imageUrl,omitempty"`
	RemoteID    *string      `db:"remote_id" json:"remoteId,omitempty"`
	IsActive    bool         `db:"is_active" json:"isActive"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	Attachments []Attachment `db:"-" json:"attachments,omitempty"`
}

// Attachment is an owned child entity holding one uploaded file's
// retrieval URL and the media store deletion key.
type Attachment struct {
	ID       int64  `db:"id" json:"id"`
	ParentID int64  `db:"parent_id" json:"-"`
	URL      string `db:"url" json:"url"`
	RemoteID string `db:"remote_id" json:"remoteId"`
}

// SaveInput is the validated create-or-update request parsed from the
// multipart form. Nil text fields were absent from the form, which on
// update means "keep the prior value".
type SaveInput struct {
	ID          *int64
	Title       *string
	Description *string
	Price       *string
	Category    *string
	Slot        *string
	Files       []*multipart.FileHeader
}

// ToggleRequest mutates only the visibility flag of a record.
type ToggleRequest struct {
	ID       int64 `json:"id"`
	IsActive *bool `json:"isActive"`
}

// Package categories. Category-exclusive content types keep at most one
// record per category.
const (
	CategoryEconomic = "Economic"
	CategoryStandard = "Standard"
	CategoryPremium  = "Premium"
)

// ValidCategories is the set of accepted package categories.
var ValidCategories = map[string]bool{
	CategoryEconomic: true,
	CategoryStandard: true,
	CategoryPremium:  true,
}

// Attachment slots for hero-singleton content types. A record is either
// hero-bearing or gallery-bearing, never both.
const (
	SlotHero    = "hero"
	SlotGallery = "gallery"
)

// ValidSlots is the set of accepted slots.
var ValidSlots = map[string]bool{
	SlotHero:    true,
	SlotGallery: true,
}
