package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateOrder     = "CREATE_ORDER"
	ActionUpdateOrder     = "UPDATE_ORDER"
	ActionRecordDelivery  = "RECORD_DELIVERY"
	ActionRecordReceipt   = "RECORD_RECEIPT"
	ActionRegisterWastage = "REGISTER_WASTAGE"

	ActionCreateVendor  = "CREATE_VENDOR"
	ActionUpdateVendor  = "UPDATE_VENDOR"
	ActionDeleteVendor  = "DELETE_VENDOR"
	ActionCreateDepot   = "CREATE_DEPOT"
	ActionUpdateDepot   = "UPDATE_DEPOT"
	ActionDeleteDepot   = "DELETE_DEPOT"
	ActionCreateAgency  = "CREATE_AGENCY"
	ActionUpdateAgency  = "UPDATE_AGENCY"
	ActionDeleteAgency  = "DELETE_AGENCY"
	ActionCreateProduct = "CREATE_PRODUCT"
	ActionUpdateProduct = "UPDATE_PRODUCT"
	ActionDeleteProduct = "DELETE_PRODUCT"
	ActionCreateVariant = "CREATE_DEPOT_VARIANT"
	ActionUpdateVariant = "UPDATE_DEPOT_VARIANT"
	ActionDeleteVariant = "DELETE_DEPOT_VARIANT"

	ActionImportSchedule = "IMPORT_SCHEDULE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/po number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
