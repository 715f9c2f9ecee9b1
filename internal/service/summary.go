package service

import (
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pure, derived views over an order's line items. These take reference maps
// instead of hitting repositories so they work on unsaved drafts too.

// ProductSummary sums ordered quantity per product
type ProductSummary struct {
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	Unit          string    `json:"unit"`
	TotalQuantity int       `json:"total_quantity"`
}

// VariantSummary sums ordered quantity per depot variant and tracks the
// distinct agencies/depots touched, for the expandable order-summary view
type VariantSummary struct {
	DepotVariantID uuid.UUID   `json:"depot_variant_id"`
	Name           string      `json:"name"`
	TotalQuantity  int         `json:"total_quantity"`
	AgencyIDs      []uuid.UUID `json:"agency_ids"`
	DepotIDs       []uuid.UUID `json:"depot_ids"`
}

// GroupByProduct sums orderedQuantity across items sharing a product.
// Items with a non-positive quantity or an unresolved product are ignored.
func GroupByProduct(items []model.OrderItem, products map[uuid.UUID]model.Product) map[uuid.UUID]ProductSummary {
	result := make(map[uuid.UUID]ProductSummary)
	for _, item := range items {
		if item.OrderedQuantity <= 0 {
			continue
		}
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		summary := result[item.ProductID]
		summary.ProductID = item.ProductID
		summary.Name = product.Name
		summary.Unit = product.Unit
		summary.TotalQuantity += item.OrderedQuantity
		result[item.ProductID] = summary
	}
	return result
}

// GroupByVariant nests variant summaries under their product
func GroupByVariant(items []model.OrderItem, products map[uuid.UUID]model.Product, variants map[uuid.UUID]model.DepotVariant) map[uuid.UUID]map[uuid.UUID]VariantSummary {
	result := make(map[uuid.UUID]map[uuid.UUID]VariantSummary)
	for _, item := range items {
		if item.OrderedQuantity <= 0 {
			continue
		}
		if _, ok := products[item.ProductID]; !ok {
			continue
		}

		byVariant, ok := result[item.ProductID]
		if !ok {
			byVariant = make(map[uuid.UUID]VariantSummary)
			result[item.ProductID] = byVariant
		}

		summary := byVariant[item.DepotVariantID]
		summary.DepotVariantID = item.DepotVariantID
		if variant, ok := variants[item.DepotVariantID]; ok {
			summary.Name = variant.Name
		}
		summary.TotalQuantity += item.OrderedQuantity
		summary.AgencyIDs = appendDistinct(summary.AgencyIDs, item.AgencyID)
		summary.DepotIDs = appendDistinct(summary.DepotIDs, item.DepotID)
		byVariant[item.DepotVariantID] = summary
	}
	return result
}

// ComputeTotal is the order's monetary total: unit price times ordered
// quantity summed over items whose product resolves to a known price.
// Unresolved products contribute zero rather than aborting the computation.
func ComputeTotal(items []model.OrderItem, priceList map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.OrderedQuantity <= 0 {
			continue
		}
		price, ok := priceList[item.ProductID]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.OrderedQuantity))))
	}
	return total
}

func appendDistinct(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
