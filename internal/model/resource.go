package model

import "time"

type ResourceKind string

const (
	ResourceKindRoom      ResourceKind = "room"
	ResourceKindParking   ResourceKind = "parking"
	ResourceKindEquipment ResourceKind = "equipment"
)

// Resource представляет бронируемый ресурс: помещение, парковочное
// место или инвентарь, которым организация делится с другими.
type Resource struct {
	ID             int64        `json:"id"`
	OrganizationID int64        `json:"organization_id"` // организация-владелец
	Name           string       `json:"name"`
	Slug           string       `json:"slug"`
	Kind           ResourceKind `json:"kind"`
	Description    string       `json:"description"`
	IsActive       bool         `json:"is_active"`
	CreatedAt      time.Time    `json:"created_at"`
}
