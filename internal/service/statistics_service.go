package service

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsService interface {
	GetFulfillmentStatistics(ctx context.Context, startDate, endDate time.Time) (model.FulfillmentStatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetFulfillmentStatistics aggregates the order pipeline over a time range:
// ordered vs delivered vs received quantities, wastage at both checkpoints,
// and the products losing the most stock
func (s *statisticsService) GetFulfillmentStatistics(ctx context.Context, startDate, endDate time.Time) (model.FulfillmentStatisticsResponse, error) {
	var response model.FulfillmentStatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	var orderCount int64
	s.db.WithContext(ctx).Model(&model.Order{}).
		Where("delivery_date >= ? AND delivery_date <= ?", startDate, endDate).
		Count(&orderCount)
	response.TotalOrders = int(orderCount)

	// Pipeline quantity totals
	var totals struct {
		Ordered   int
		Delivered int
		Received  int
	}
	s.db.WithContext(ctx).Table("order_items").
		Select("COALESCE(SUM(order_items.ordered_quantity), 0) as ordered, COALESCE(SUM(order_items.delivered_quantity), 0) as delivered, COALESCE(SUM(order_items.received_quantity), 0) as received").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.delivery_date >= ? AND orders.delivery_date <= ?", startDate, endDate).
		Scan(&totals)
	response.TotalOrderedQuantity = totals.Ordered
	response.TotalDeliveredQuantity = totals.Delivered
	response.TotalReceivedQuantity = totals.Received

	// Wastage totals per checkpoint
	var wastage struct {
		FarmerWastage     int
		FarmerNotReceived int
		AgencyWastage     int
		AgencyNotReceived int
	}
	s.db.WithContext(ctx).Table("order_items").
		Select("COALESCE(SUM(order_items.farmer_wastage), 0) as farmer_wastage, COALESCE(SUM(order_items.farmer_not_received), 0) as farmer_not_received, COALESCE(SUM(order_items.agency_wastage), 0) as agency_wastage, COALESCE(SUM(order_items.agency_not_received), 0) as agency_not_received").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.delivery_date >= ? AND orders.delivery_date <= ?", startDate, endDate).
		Scan(&wastage)
	response.FarmerWastage = wastage.FarmerWastage
	response.FarmerNotReceived = wastage.FarmerNotReceived
	response.AgencyWastage = wastage.AgencyWastage
	response.AgencyNotReceived = wastage.AgencyNotReceived

	// Estimated monetary loss: wastage at both checkpoints priced at the
	// product's unit price
	var loss struct {
		Value decimal.Decimal
	}
	s.db.WithContext(ctx).Table("order_items").
		Select("COALESCE(SUM((COALESCE(order_items.farmer_wastage, 0) + COALESCE(order_items.agency_wastage, 0)) * products.unit_price), 0) as value").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.delivery_date >= ? AND orders.delivery_date <= ?", startDate, endDate).
		Scan(&loss)
	response.EstimatedLossValue = loss.Value

	// Products with the highest accumulated wastage
	var topWastage []model.WastageRanking
	s.db.WithContext(ctx).Table("order_items").
		Select("products.id as product_id, products.name as product_name, products.sku as product_sku, COALESCE(SUM(COALESCE(order_items.farmer_wastage, 0) + COALESCE(order_items.agency_wastage, 0)), 0) as total_wastage, COALESCE(SUM(order_items.ordered_quantity), 0) as total_ordered").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.delivery_date >= ? AND orders.delivery_date <= ?", startDate, endDate).
		Group("products.id, products.name, products.sku").
		Order("total_wastage DESC").
		Limit(5).
		Scan(&topWastage)
	response.TopWastageProducts = topWastage

	return response, nil
}
