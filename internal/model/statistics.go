package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FulfillmentStatisticsResponse aggregates order pipeline totals and wastage
// figures over a time range
type FulfillmentStatisticsResponse struct {
	TotalOrders            int             `json:"total_orders"`
	TotalOrderedQuantity   int             `json:"total_ordered_quantity"`
	TotalDeliveredQuantity int             `json:"total_delivered_quantity"`
	TotalReceivedQuantity  int             `json:"total_received_quantity"`
	FarmerWastage          int             `json:"farmer_wastage"`
	FarmerNotReceived      int             `json:"farmer_not_received"`
	AgencyWastage          int             `json:"agency_wastage"`
	AgencyNotReceived      int             `json:"agency_not_received"`
	EstimatedLossValue     decimal.Decimal `json:"estimated_loss_value"`
	TopWastageProducts     []WastageRanking `json:"top_wastage_products"`
	TimeRangeStartDate     time.Time       `json:"time_range_start_date"`
	TimeRangeEndDate       time.Time       `json:"time_range_end_date"`
}

// WastageRanking represents a ranked product based on accumulated wastage
type WastageRanking struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	ProductSKU    string `json:"product_sku"`
	TotalWastage  int    `json:"total_wastage"`
	TotalOrdered  int    `json:"total_ordered"`
}
