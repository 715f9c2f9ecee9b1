package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type wastageFixture struct {
	orders  OrderService
	wastage WastageService
	repo    *fakeOrderRepo
}

func newWastageFixture(t *testing.T) (*wastageFixture, *model.Order) {
	t.Helper()

	repo := newFakeOrderRepo()
	audit := &fakeAuditRepo{}
	f := &wastageFixture{
		orders:  NewOrderService(repo, newFakeProductRepo(), audit, fakeTxManager{}, nil),
		wastage: NewWastageService(repo, audit, fakeTxManager{}, nil),
		repo:    repo,
	}

	order, err := f.orders.CreateOrder(context.Background(), uuid.NewString(), validCreateRequest())
	require.NoError(t, err)
	return f, order
}

// deliver records delivered quantities of 10 and 5 for the fixture order
func (f *wastageFixture) deliver(t *testing.T, order *model.Order) {
	t.Helper()
	first, second := 10, 5
	_, _, err := f.orders.RecordDelivery(context.Background(), uuid.NewString(), order.ID.String(), RecordDeliveryRequest{
		Items: []DeliveryLineRequest{
			{OrderItemID: order.Items[0].ID.String(), DeliveredQuantity: &first},
			{OrderItemID: order.Items[1].ID.String(), DeliveredQuantity: &second},
		},
	})
	require.NoError(t, err)
}

func (f *wastageFixture) receive(t *testing.T, order *model.Order) {
	t.Helper()
	_, _, err := f.orders.RecordReceipt(context.Background(), uuid.NewString(), order.ID.String(), RecordReceiptRequest{})
	require.NoError(t, err)
}

func intp(v int) *int { return &v }

func TestRegisterFarmerWastageWithinBasis(t *testing.T) {
	f, order := newWastageFixture(t)
	f.deliver(t, order)

	updated, err := f.wastage.RegisterWastage(context.Background(), uuid.NewString(), order.ID.String(), RegisterWastageRequest{
		Level: model.WastageLevelFarmer,
		Entries: []WastageEntryRequest{
			{OrderItemID: order.Items[0].ID.String(), Wastage: intp(2), NotReceived: intp(1)},
		},
	})
	require.NoError(t, err)

	require.Equal(t, 2, *updated.Items[0].FarmerWastage)
	require.Equal(t, 1, *updated.Items[0].FarmerNotReceived)
	require.Nil(t, updated.Items[1].FarmerWastage)
}

func TestRegisterWastageAtExactBasisBoundary(t *testing.T) {
	f, order := newWastageFixture(t)
	f.deliver(t, order)

	// wastage + notReceived == delivered is allowed
	updated, err := f.wastage.RegisterWastage(context.Background(), uuid.NewString(), order.ID.String(), RegisterWastageRequest{
		Level: model.WastageLevelFarmer,
		Entries: []WastageEntryRequest{
			{OrderItemID: order.Items[0].ID.String(), Wastage: intp(7), NotReceived: intp(3)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 7, *updated.Items[0].FarmerWastage)
}

func TestRegisterWastageRejectsExceedingBasis(t *testing.T) {
	f, order := newWastageFixture(t)
	f.deliver(t, order)

	_, err := f.wastage.RegisterWastage(context.Background(), uuid.NewString(), order.ID.String(), RegisterWastageRequest{
		Level: model.WastageLevelFarmer,
		Entries: []WastageEntryRequest{
			{OrderItemID: order.Items[0].ID.String(), Wastage: intp(8), NotReceived: intp(4)}, // 12 > 10
		},
	})

	var cverr *ConstraintViolationError
	require.ErrorAs(t, err, &cverr)
	require.Equal(t, model.WastageLevelFarmer, cverr.Level)
	require.Len(t, cverr.Violations, 1)
	require.Equal(t, order.Items[0].ID, cverr.Violations[0].OrderItemID)
	require.Equal(t, 10, cverr.Violations[0].Limit)
	require.Equal(t, 2, cverr.Violations[0].Excess)

	// Rejection applies nothing
	stored, getErr := f.orders.GetOrder(context.Background(), order.ID.String())
	require.NoError(t, getErr)
	require.Nil(t, stored.Items[0].FarmerWastage)
	require.Nil(t, stored.Items[0].FarmerNotReceived)
}

func TestRegisterWastageOneViolationRejectsWholeSubmission(t *testing.T) {
	f, order := newWastageFixture(t)
	f.deliver(t, order)

	_, err := f.wastage.RegisterWastage(context.Background(), uuid.NewString(), order.ID.String(), RegisterWastageRequest{
		Level: model.WastageLevelFarmer,
		Entries: []WastageEntryRequest{
			{OrderItemID: order.Items[0].ID.String(), Wastage: intp(1), NotReceived: intp(0)}, // fine
			{OrderItemID: order.Items[1].ID.String(), Wastage: intp(9), NotReceived: intp(0)}, // 9 > 5
		},
	})

	var cverr *ConstraintViolationError
	require.ErrorAs(t, err, &cverr)

	// The valid entry must not have been applied either
	stored, getErr := f.orders.GetOrder(context.Background(), order.ID.String())
	require.NoError(t, getErr)
	require.Nil(t, stored.Items[0].FarmerWastage)
	require.Nil(t, stored.Items[1].FarmerWastage)
}

func TestRegisterWastageOverwritesPriorValues(t *testing.T) {
	f, order := newWastageFixture(t)
	f.deliver(t, order)

	ctx := context.Background()
	_, err := f.wastage.RegisterWastage(ctx, uuid.NewString(), order.ID.String(), RegisterWastageRequest{
		Level: model.WastageLevelFarmer,
		Entries: []WastageEntryRequest{
			{OrderItemID: order.Items[0].ID.String(), Wastage: intp(4), NotReceived: intp(2)},
		},
	})
	require.NoError(t, err)

	updated, err := f.wastage.RegisterWastage(ctx, uuid.NewString(), order.ID.String(), RegisterWastageRequest{
		Level: model.WastageLevelFarmer,
		Entries: []WastageEntryRequest{
			{OrderItemID: order.Items[0].ID.String(), Wastage: intp(1), NotReceived: intp(0)},
		},
	})
	require.NoError(t, err)

	// Overwrite, not accumulate
	require.Equal(t, 1, *updated.Items[0].FarmerWastage)
	require.Equal(t, 0, *updated.Items[0].FarmerNotReceived)
}

func TestRegisterAgencyWastageAgainstReceivedBasis(t *testing.T) {
	f, order := newWastageFixture(t)
	f.deliver(t, order)
	f.receive(t, order) // received defaults to delivered: 10 and 5

	updated, err := f.wastage.RegisterWastage(context.Background(), uuid.NewString(), order.ID.String(), RegisterWastageRequest{
		Level: model.WastageLevelAgency,
		Entries: []WastageEntryRequest{
			{OrderItemID: order.Items[1].ID.String(), Wastage: intp(3), NotReceived: intp(2)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 3, *updated.Items[1].AgencyWastage)
	require.Equal(t, 2, *updated.Items[1].AgencyNotReceived)
	// Farmer checkpoint untouched
	require.Nil(t, updated.Items[1].FarmerWastage)
}

func TestRegisterFarmerWastageBeforeDelivery(t *testing.T) {
	f, order := newWastageFixture(t)

	_, err := f.wastage.RegisterWastage(context.Background(), uuid.NewString(), order.ID.String(), RegisterWastageRequest{
		Level: model.WastageLevelFarmer,
		Entries: []WastageEntryRequest{
			{OrderItemID: order.Items[0].ID.String(), Wastage: intp(1), NotReceived: intp(0)},
		},
	})
	require.ErrorIs(t, err, ErrDeliveryNotRecorded)
}

func TestRegisterAgencyWastageBeforeReceipt(t *testing.T) {
	f, order := newWastageFixture(t)
	f.deliver(t, order)

	_, err := f.wastage.RegisterWastage(context.Background(), uuid.NewString(), order.ID.String(), RegisterWastageRequest{
		Level: model.WastageLevelAgency,
		Entries: []WastageEntryRequest{
			{OrderItemID: order.Items[0].ID.String(), Wastage: intp(1), NotReceived: intp(0)},
		},
	})
	require.ErrorIs(t, err, ErrReceiptNotRecorded)
}

func TestRegisterWastageRejectsForeignItem(t *testing.T) {
	f, order := newWastageFixture(t)
	f.deliver(t, order)

	_, err := f.wastage.RegisterWastage(context.Background(), uuid.NewString(), order.ID.String(), RegisterWastageRequest{
		Level: model.WastageLevelFarmer,
		Entries: []WastageEntryRequest{
			{OrderItemID: uuid.NewString(), Wastage: intp(1), NotReceived: intp(0)},
		},
	})

	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
}
