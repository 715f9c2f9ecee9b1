package service

import (
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestGroupByProductSumsAcrossItems(t *testing.T) {
	milkID, yogurtID := uuid.New(), uuid.New()
	products := map[uuid.UUID]model.Product{
		milkID:   {ID: milkID, Name: "Whole Milk", Unit: "liter"},
		yogurtID: {ID: yogurtID, Name: "Yogurt", Unit: "cup"},
	}

	items := []model.OrderItem{
		{ProductID: milkID, OrderedQuantity: 4},
		{ProductID: milkID, OrderedQuantity: 6},
		{ProductID: yogurtID, OrderedQuantity: 3},
		{ProductID: milkID, OrderedQuantity: 0},          // skipped
		{ProductID: uuid.New(), OrderedQuantity: 2},      // unknown product skipped
	}

	result := GroupByProduct(items, products)
	require.Len(t, result, 2)
	require.Equal(t, 10, result[milkID].TotalQuantity)
	require.Equal(t, "Whole Milk", result[milkID].Name)
	require.Equal(t, "liter", result[milkID].Unit)
	require.Equal(t, 3, result[yogurtID].TotalQuantity)
}

func TestGroupByVariantNestsUnderProduct(t *testing.T) {
	milkID := uuid.New()
	fullFatID, skimID := uuid.New(), uuid.New()
	depotA, depotB := uuid.New(), uuid.New()
	agencyA, agencyB := uuid.New(), uuid.New()

	products := map[uuid.UUID]model.Product{
		milkID: {ID: milkID, Name: "Whole Milk"},
	}
	variants := map[uuid.UUID]model.DepotVariant{
		fullFatID: {ID: fullFatID, Name: "Full Fat 1L"},
		skimID:    {ID: skimID, Name: "Skim 1L"},
	}

	items := []model.OrderItem{
		{ProductID: milkID, DepotVariantID: fullFatID, DepotID: depotA, AgencyID: agencyA, OrderedQuantity: 4},
		{ProductID: milkID, DepotVariantID: fullFatID, DepotID: depotB, AgencyID: agencyB, OrderedQuantity: 2},
		{ProductID: milkID, DepotVariantID: fullFatID, DepotID: depotA, AgencyID: agencyA, OrderedQuantity: 1},
		{ProductID: milkID, DepotVariantID: skimID, DepotID: depotA, AgencyID: agencyA, OrderedQuantity: 5},
	}

	result := GroupByVariant(items, products, variants)
	require.Len(t, result, 1)
	require.Len(t, result[milkID], 2)

	fullFat := result[milkID][fullFatID]
	require.Equal(t, "Full Fat 1L", fullFat.Name)
	require.Equal(t, 7, fullFat.TotalQuantity)
	// Distinct agencies and depots only
	require.Len(t, fullFat.AgencyIDs, 2)
	require.Len(t, fullFat.DepotIDs, 2)

	require.Equal(t, 5, result[milkID][skimID].TotalQuantity)
}

func TestComputeTotalMultipliesPriceByQuantity(t *testing.T) {
	milkID, yogurtID := uuid.New(), uuid.New()
	prices := map[uuid.UUID]decimal.Decimal{
		milkID:   decimal.NewFromFloat(1.50),
		yogurtID: decimal.NewFromFloat(0.75),
	}

	items := []model.OrderItem{
		{ProductID: milkID, OrderedQuantity: 10},    // 15.00
		{ProductID: yogurtID, OrderedQuantity: 4},   // 3.00
		{ProductID: uuid.New(), OrderedQuantity: 9}, // no price, contributes zero
	}

	total := ComputeTotal(items, prices)
	require.True(t, total.Equal(decimal.NewFromFloat(18.0)), "got %s", total)
}

func TestComputeTotalEmptyItems(t *testing.T) {
	total := ComputeTotal(nil, map[uuid.UUID]decimal.Decimal{})
	require.True(t, total.IsZero())
}
