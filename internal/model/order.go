package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus constants. The lifecycle only moves forward.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusReceived  = "RECEIVED"
)

// Wastage checkpoint levels
const (
	WastageLevelFarmer = "farmer"
	WastageLevelAgency = "agency"
)

// Order represents a purchase order placed with a vendor/farmer to cover
// one delivery day's aggregated subscription demand
type Order struct {
	ID                uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PoNumber          string      `gorm:"type:varchar(30);uniqueIndex;not null" json:"po_number"` // system-assigned, immutable
	VendorID          uuid.UUID   `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Vendor            *Vendor     `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	ContactPersonName string      `gorm:"type:varchar(255)" json:"contact_person_name"` // denormalized from vendor, editable
	OrderDate         time.Time   `gorm:"type:date;not null" json:"order_date"`
	DeliveryDate      time.Time   `gorm:"type:date;not null;index" json:"delivery_date"`
	Notes             string      `gorm:"type:text" json:"notes"`
	Status            string      `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"` // PENDING, DELIVERED, RECEIVED
	Items             []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// OrderItem is a single line of an Order. Items are created together with
// the order; after the order leaves PENDING only the quantity-tracking
// fields below mutate. Nil pointer fields mean "never recorded".
type OrderItem struct {
	ID              uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product      `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	DepotID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"depot_id"`
	Depot           *Depot        `gorm:"foreignKey:DepotID" json:"depot,omitempty"`
	DepotVariantID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"depot_variant_id"`
	DepotVariant    *DepotVariant `gorm:"foreignKey:DepotVariantID" json:"depot_variant,omitempty"`
	AgencyID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"agency_id"`
	Agency          *Agency       `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
	OrderedQuantity int           `gorm:"type:int;not null" json:"ordered_quantity"`

	// Delivery / receipt tracking
	DeliveredQuantity *int `gorm:"type:int" json:"delivered_quantity"`
	ReceivedQuantity  *int `gorm:"type:int" json:"received_quantity"`

	// Farmer checkpoint: farmer_wastage + farmer_not_received <= delivered_quantity
	FarmerWastage     *int `gorm:"type:int" json:"farmer_wastage"`
	FarmerNotReceived *int `gorm:"type:int" json:"farmer_not_received"`

	// Agency checkpoint: agency_wastage + agency_not_received <= received_quantity
	AgencyWastage     *int `gorm:"type:int" json:"agency_wastage"`
	AgencyNotReceived *int `gorm:"type:int" json:"agency_not_received"`
}
