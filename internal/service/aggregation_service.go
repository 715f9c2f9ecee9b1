package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// DraftOrderItem is an order-line candidate produced by demand aggregation.
// AgencyID is nil when member-to-agency attribution could not be resolved;
// the user completes it before submission.
type DraftOrderItem struct {
	DepotID        uuid.UUID  `json:"depot_id"`
	ProductID      uuid.UUID  `json:"product_id"`
	DepotVariantID uuid.UUID  `json:"depot_variant_id"`
	AgencyID       *uuid.UUID `json:"agency_id"`
	Quantity       int        `json:"quantity"`
}

// DraftStats backs the user-facing confirmation message
type DraftStats struct {
	TotalQuantity int `json:"total_quantity"`
	DepotCount    int `json:"depot_count"`
	EntryCount    int `json:"entry_count"`
}

type DraftOrderResponse struct {
	DeliveryDate string           `json:"delivery_date"`
	Items        []DraftOrderItem `json:"items"`
	Stats        DraftStats       `json:"stats"`
}

type AggregationService interface {
	BuildDraftOrder(ctx context.Context, deliveryDate time.Time) (DraftOrderResponse, error)
}

type aggregationService struct {
	scheduleRepo repository.ScheduleRepository
}

func NewAggregationService(scheduleRepo repository.ScheduleRepository) AggregationService {
	return &aggregationService{scheduleRepo: scheduleRepo}
}

// demandGroup accumulates schedule entries sharing (depot, product, variant)
type demandGroup struct {
	key          groupKey
	total        int
	perAgency    map[uuid.UUID]int
	agencyOrder  []uuid.UUID // first-seen order, keeps output deterministic
	unattributed int
}

type groupKey struct {
	depotID   uuid.UUID
	productID uuid.UUID
	variantID uuid.UUID
}

// BuildDraftOrder aggregates one delivery day's subscription demand into
// order-line candidates. No schedule entries for the date is a valid outcome
// and yields an empty draft; a repository failure propagates so a partial
// result is never surfaced as a complete draft.
func (s *aggregationService) BuildDraftOrder(ctx context.Context, deliveryDate time.Time) (DraftOrderResponse, error) {
	entries, err := s.scheduleRepo.ListByDate(ctx, deliveryDate)
	if err != nil {
		return DraftOrderResponse{}, fmt.Errorf("failed to fetch delivery schedule: %w", err)
	}

	groups := make(map[groupKey]*demandGroup)
	var order []groupKey
	used := 0

	for _, entry := range entries {
		if !validEntry(entry) {
			continue
		}
		used++

		key := groupKey{depotID: entry.DepotID, productID: entry.ProductID, variantID: entry.DepotVariantID}
		g, ok := groups[key]
		if !ok {
			g = &demandGroup{key: key, perAgency: make(map[uuid.UUID]int)}
			groups[key] = g
			order = append(order, key)
		}

		g.total += entry.Quantity
		if entry.AgencyID != nil {
			if _, seen := g.perAgency[*entry.AgencyID]; !seen {
				g.agencyOrder = append(g.agencyOrder, *entry.AgencyID)
			}
			g.perAgency[*entry.AgencyID] += entry.Quantity
		} else {
			g.unattributed += entry.Quantity
		}
	}

	var items []DraftOrderItem
	depots := make(map[uuid.UUID]bool)
	totalQty := 0

	for _, key := range order {
		g := groups[key]
		candidates := g.emit()
		for _, c := range candidates {
			depots[c.DepotID] = true
			totalQty += c.Quantity
		}
		items = append(items, candidates...)
	}

	return DraftOrderResponse{
		DeliveryDate: deliveryDate.Format("2006-01-02"),
		Items:        items,
		Stats: DraftStats{
			TotalQuantity: totalQty,
			DepotCount:    len(depots),
			EntryCount:    used,
		},
	}, nil
}

// validEntry discards candidates with unresolved references or a
// non-positive quantity
func validEntry(entry model.DeliveryScheduleEntry) bool {
	if entry.DepotID == uuid.Nil || entry.ProductID == uuid.Nil || entry.DepotVariantID == uuid.Nil {
		return false
	}
	return entry.Quantity > 0
}

// emit turns a demand group into line-item candidates.
//
// Exact per-agency sums are preferred whenever every entry in the group is
// attributed. A group with no attribution at all becomes a single candidate
// with a blank agency. Only when unattributed quantity spans more than one
// agency does the ceil-based even split apply: ceil(total/n) per agency with
// the remainder on the last, so the group total is conserved exactly.
func (g *demandGroup) emit() []DraftOrderItem {
	base := DraftOrderItem{
		DepotID:        g.key.depotID,
		ProductID:      g.key.productID,
		DepotVariantID: g.key.variantID,
	}

	switch {
	case len(g.perAgency) == 0:
		// Nothing attributed: one candidate, agency left for the user
		item := base
		item.Quantity = g.total
		return []DraftOrderItem{item}

	case len(g.perAgency) == 1:
		// Single agency absorbs the whole group, unattributed included
		agencyID := g.agencyOrder[0]
		item := base
		item.AgencyID = &agencyID
		item.Quantity = g.total
		return []DraftOrderItem{item}

	case g.unattributed == 0:
		// Fully attributed across several agencies: exact sums
		items := make([]DraftOrderItem, 0, len(g.agencyOrder))
		for _, agencyID := range g.agencyOrder {
			id := agencyID
			item := base
			item.AgencyID = &id
			item.Quantity = g.perAgency[agencyID]
			items = append(items, item)
		}
		return items

	default:
		// Unattributed quantity across multiple agencies: even split fallback
		n := len(g.agencyOrder)
		per := (g.total + n - 1) / n
		remaining := g.total
		var items []DraftOrderItem
		for i, agencyID := range g.agencyOrder {
			qty := per
			if i == n-1 {
				qty = remaining
			}
			if qty <= 0 {
				break
			}
			id := agencyID
			item := base
			item.AgencyID = &id
			item.Quantity = qty
			items = append(items, item)
			remaining -= qty
		}
		return items
	}
}
