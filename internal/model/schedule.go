package model

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryScheduleEntry is one member's subscription demand for a given day.
// Entries are pushed in from the subscription system and consumed read-only
// by the demand aggregation engine.
type DeliveryScheduleEntry struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MemberID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"member_id"`
	DepotID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"depot_id"`
	Depot          *Depot        `gorm:"foreignKey:DepotID" json:"depot,omitempty"`
	ProductID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"product_id"`
	Product        *Product      `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	DepotVariantID uuid.UUID     `gorm:"type:uuid;not null;index" json:"depot_variant_id"`
	DepotVariant   *DepotVariant `gorm:"foreignKey:DepotVariantID" json:"depot_variant,omitempty"`
	AgencyID       *uuid.UUID    `gorm:"type:uuid;index" json:"agency_id"` // nil when attribution is unresolved upstream
	Agency         *Agency       `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
	Quantity       int           `gorm:"type:int;not null" json:"quantity"`
	ScheduledDate  time.Time     `gorm:"type:date;not null;index" json:"scheduled_date"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
