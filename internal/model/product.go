package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog item (milk, curd, produce...) priced per unit
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU       string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit      string          `gorm:"type:varchar(50);not null" json:"unit"` // litre, kg, piece...
	Category  string          `gorm:"type:varchar(100);index" json:"category"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// DepotVariant is a product as offered from a specific depot; packaging size
// and price may differ depot to depot. A variant belongs to exactly one depot
// and one product.
type DepotVariant struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DepotID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_variant_depot_product" json:"depot_id"`
	Depot     *Depot          `gorm:"foreignKey:DepotID" json:"depot,omitempty"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index:idx_variant_depot_product" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"` // e.g. "500ml pouch"
	Unit      string          `gorm:"type:varchar(50)" json:"unit"`           // overrides product unit when set
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	IsActive  bool            `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}
