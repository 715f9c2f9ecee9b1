package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func scheduleEntry(depot, product, variant uuid.UUID, agency *uuid.UUID, qty int, date time.Time) model.DeliveryScheduleEntry {
	return model.DeliveryScheduleEntry{
		MemberID:       uuid.New(),
		DepotID:        depot,
		ProductID:      product,
		DepotVariantID: variant,
		AgencyID:       agency,
		Quantity:       qty,
		ScheduledDate:  date,
	}
}

func TestBuildDraftOrderGroupsSameKey(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	depot, product, variant := uuid.New(), uuid.New(), uuid.New()
	agency := uuid.New()

	repo := &fakeScheduleRepo{entries: []model.DeliveryScheduleEntry{
		scheduleEntry(depot, product, variant, &agency, 3, date),
		scheduleEntry(depot, product, variant, &agency, 4, date),
	}}
	svc := NewAggregationService(repo)

	draft, err := svc.BuildDraftOrder(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, draft.Items, 1)
	require.Equal(t, 7, draft.Items[0].Quantity)
	require.NotNil(t, draft.Items[0].AgencyID)
	require.Equal(t, agency, *draft.Items[0].AgencyID)
	require.Equal(t, 7, draft.Stats.TotalQuantity)
	require.Equal(t, 1, draft.Stats.DepotCount)
	require.Equal(t, 2, draft.Stats.EntryCount)
}

func TestBuildDraftOrderExactSumsWhenFullyAttributed(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	depot, product, variant := uuid.New(), uuid.New(), uuid.New()
	agencyA, agencyB := uuid.New(), uuid.New()

	repo := &fakeScheduleRepo{entries: []model.DeliveryScheduleEntry{
		scheduleEntry(depot, product, variant, &agencyA, 3, date),
		scheduleEntry(depot, product, variant, &agencyB, 4, date),
		scheduleEntry(depot, product, variant, &agencyA, 2, date),
	}}
	svc := NewAggregationService(repo)

	draft, err := svc.BuildDraftOrder(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, draft.Items, 2)

	byAgency := make(map[uuid.UUID]int)
	for _, item := range draft.Items {
		require.NotNil(t, item.AgencyID)
		byAgency[*item.AgencyID] = item.Quantity
	}
	require.Equal(t, 5, byAgency[agencyA])
	require.Equal(t, 4, byAgency[agencyB])
	require.Equal(t, 9, draft.Stats.TotalQuantity)
}

func TestBuildDraftOrderEvenSplitConservesTotal(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	depot, product, variant := uuid.New(), uuid.New(), uuid.New()
	agencyA, agencyB := uuid.New(), uuid.New()

	// 7 total across two agencies with part of the demand unattributed:
	// ceil(7/2) = 4 to the first, remaining 3 to the second
	repo := &fakeScheduleRepo{entries: []model.DeliveryScheduleEntry{
		scheduleEntry(depot, product, variant, &agencyA, 2, date),
		scheduleEntry(depot, product, variant, &agencyB, 2, date),
		scheduleEntry(depot, product, variant, nil, 3, date),
	}}
	svc := NewAggregationService(repo)

	draft, err := svc.BuildDraftOrder(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, draft.Items, 2)
	require.Equal(t, 4, draft.Items[0].Quantity)
	require.Equal(t, 3, draft.Items[1].Quantity)
	require.Equal(t, 7, draft.Stats.TotalQuantity)
}

func TestBuildDraftOrderSingleAgencyAbsorbsUnattributed(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	depot, product, variant := uuid.New(), uuid.New(), uuid.New()
	agency := uuid.New()

	repo := &fakeScheduleRepo{entries: []model.DeliveryScheduleEntry{
		scheduleEntry(depot, product, variant, &agency, 2, date),
		scheduleEntry(depot, product, variant, nil, 3, date),
	}}
	svc := NewAggregationService(repo)

	draft, err := svc.BuildDraftOrder(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, draft.Items, 1)
	require.Equal(t, 5, draft.Items[0].Quantity)
	require.NotNil(t, draft.Items[0].AgencyID)
	require.Equal(t, agency, *draft.Items[0].AgencyID)
}

func TestBuildDraftOrderUnattributedGroupKeepsBlankAgency(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	depot, product, variant := uuid.New(), uuid.New(), uuid.New()

	repo := &fakeScheduleRepo{entries: []model.DeliveryScheduleEntry{
		scheduleEntry(depot, product, variant, nil, 6, date),
	}}
	svc := NewAggregationService(repo)

	draft, err := svc.BuildDraftOrder(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, draft.Items, 1)
	require.Nil(t, draft.Items[0].AgencyID)
	require.Equal(t, 6, draft.Items[0].Quantity)
}

func TestBuildDraftOrderEmptyDateYieldsEmptyDraft(t *testing.T) {
	svc := NewAggregationService(&fakeScheduleRepo{})

	draft, err := svc.BuildDraftOrder(context.Background(), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, draft.Items)
	require.Equal(t, 0, draft.Stats.TotalQuantity)
	require.Equal(t, 0, draft.Stats.EntryCount)
}

func TestBuildDraftOrderSkipsInvalidEntries(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	depot, product, variant := uuid.New(), uuid.New(), uuid.New()
	agency := uuid.New()

	zeroQty := scheduleEntry(depot, product, variant, &agency, 0, date)
	noDepot := scheduleEntry(uuid.Nil, product, variant, &agency, 5, date)
	valid := scheduleEntry(depot, product, variant, &agency, 2, date)

	repo := &fakeScheduleRepo{entries: []model.DeliveryScheduleEntry{zeroQty, noDepot, valid}}
	svc := NewAggregationService(repo)

	draft, err := svc.BuildDraftOrder(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, draft.Items, 1)
	require.Equal(t, 2, draft.Items[0].Quantity)
	require.Equal(t, 1, draft.Stats.EntryCount)
}
