package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type orderServiceFixture struct {
	svc       OrderService
	orderRepo *fakeOrderRepo
	products  *fakeProductRepo
	audit     *fakeAuditRepo
}

func newOrderServiceFixture() *orderServiceFixture {
	orderRepo := newFakeOrderRepo()
	products := newFakeProductRepo()
	audit := &fakeAuditRepo{}
	return &orderServiceFixture{
		svc:       NewOrderService(orderRepo, products, audit, fakeTxManager{}, nil),
		orderRepo: orderRepo,
		products:  products,
		audit:     audit,
	}
}

func validCreateRequest() CreateOrderRequest {
	return CreateOrderRequest{
		VendorID:     uuid.NewString(),
		OrderDate:    "2026-03-09",
		DeliveryDate: "2026-03-10",
		Items: []OrderItemRequest{
			{
				ProductID:      uuid.NewString(),
				DepotID:        uuid.NewString(),
				DepotVariantID: uuid.NewString(),
				AgencyID:       uuid.NewString(),
				Quantity:       10,
			},
			{
				ProductID:      uuid.NewString(),
				DepotID:        uuid.NewString(),
				DepotVariantID: uuid.NewString(),
				AgencyID:       uuid.NewString(),
				Quantity:       5,
			},
		},
	}
}

func TestCreateOrderAssignsSequentialPoNumbers(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, uuid.NewString(), validCreateRequest())
	require.NoError(t, err)
	require.Equal(t, "PO-20260309-0001", first.PoNumber)
	require.Equal(t, model.OrderStatusPending, first.Status)
	require.Len(t, first.Items, 2)

	second, err := f.svc.CreateOrder(ctx, uuid.NewString(), validCreateRequest())
	require.NoError(t, err)
	require.Equal(t, "PO-20260309-0002", second.PoNumber)

	require.Len(t, f.audit.entries, 2)
	require.Equal(t, model.ActionCreateOrder, f.audit.entries[0].Action)
}

func TestCreateOrderCollectsAllViolations(t *testing.T) {
	f := newOrderServiceFixture()

	req := validCreateRequest()
	req.VendorID = "not-a-uuid"
	req.DeliveryDate = "2026-03-08" // before order date
	req.Items[0].Quantity = 0
	req.Items[1].AgencyID = ""

	_, err := f.svc.CreateOrder(context.Background(), uuid.NewString(), req)

	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)

	fields := make(map[string]bool)
	for _, fe := range verr {
		fields[fe.Field] = true
	}
	require.True(t, fields["vendor_id"])
	require.True(t, fields["delivery_date"])
	require.True(t, fields["items[0].quantity"])
	require.True(t, fields["items[1].agency_id"])
	require.GreaterOrEqual(t, len(verr), 4)
}

func TestCreateOrderAllowsSameDayDelivery(t *testing.T) {
	f := newOrderServiceFixture()

	req := validCreateRequest()
	req.DeliveryDate = req.OrderDate

	order, err := f.svc.CreateOrder(context.Background(), uuid.NewString(), req)
	require.NoError(t, err)
	require.Equal(t, order.OrderDate, order.DeliveryDate)
}

func TestUpdateOrderRejectsAfterDelivery(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, uuid.NewString(), validCreateRequest())
	require.NoError(t, err)

	qty := 10
	_, _, err = f.svc.RecordDelivery(ctx, uuid.NewString(), order.ID.String(), RecordDeliveryRequest{
		Items: []DeliveryLineRequest{{OrderItemID: order.Items[0].ID.String(), DeliveredQuantity: &qty}},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateOrder(ctx, uuid.NewString(), order.ID.String(), validCreateRequest())
	require.ErrorIs(t, err, ErrOrderNotEditable)
}

func TestUpdateOrderKeepsPoNumber(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, uuid.NewString(), validCreateRequest())
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrder(ctx, uuid.NewString(), order.ID.String(), validCreateRequest())
	require.NoError(t, err)
	require.Equal(t, order.PoNumber, updated.PoNumber)
}

func TestRecordDeliveryTransitionsAndWarns(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, uuid.NewString(), validCreateRequest())
	require.NoError(t, err)

	over := 12 // ordered 10
	updated, warnings, err := f.svc.RecordDelivery(ctx, uuid.NewString(), order.ID.String(), RecordDeliveryRequest{
		Items: []DeliveryLineRequest{{OrderItemID: order.Items[0].ID.String(), DeliveredQuantity: &over}},
	})
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusDelivered, updated.Status)

	// Over-delivery is a warning, never a failure
	require.Len(t, warnings, 1)
	require.Equal(t, order.Items[0].ID, warnings[0].OrderItemID)
	require.Equal(t, 12, warnings[0].Value)
	require.Equal(t, 10, warnings[0].Limit)

	// The omitted second item keeps its unset delivered quantity
	stored, err := f.svc.GetOrder(ctx, order.ID.String())
	require.NoError(t, err)
	require.NotNil(t, stored.Items[0].DeliveredQuantity)
	require.Equal(t, 12, *stored.Items[0].DeliveredQuantity)
	require.Nil(t, stored.Items[1].DeliveredQuantity)
}

func TestRecordDeliveryTwiceRejected(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, uuid.NewString(), validCreateRequest())
	require.NoError(t, err)

	qty := 8
	req := RecordDeliveryRequest{
		Items: []DeliveryLineRequest{{OrderItemID: order.Items[0].ID.String(), DeliveredQuantity: &qty}},
	}
	_, _, err = f.svc.RecordDelivery(ctx, uuid.NewString(), order.ID.String(), req)
	require.NoError(t, err)

	_, _, err = f.svc.RecordDelivery(ctx, uuid.NewString(), order.ID.String(), req)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRecordDeliveryRejectsForeignItem(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, uuid.NewString(), validCreateRequest())
	require.NoError(t, err)

	qty := 5
	_, _, err = f.svc.RecordDelivery(ctx, uuid.NewString(), order.ID.String(), RecordDeliveryRequest{
		Items: []DeliveryLineRequest{{OrderItemID: uuid.NewString(), DeliveredQuantity: &qty}},
	})

	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)

	// Rejected before any state change
	stored, err := f.svc.GetOrder(ctx, order.ID.String())
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusPending, stored.Status)
}

func TestRecordReceiptRequiresDelivery(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, uuid.NewString(), validCreateRequest())
	require.NoError(t, err)

	_, _, err = f.svc.RecordReceipt(ctx, uuid.NewString(), order.ID.String(), RecordReceiptRequest{})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRecordReceiptDefaultsOmittedItems(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, uuid.NewString(), validCreateRequest())
	require.NoError(t, err)

	// Deliver 8 of the first item only; the second keeps no delivery record
	qty := 8
	_, _, err = f.svc.RecordDelivery(ctx, uuid.NewString(), order.ID.String(), RecordDeliveryRequest{
		Items: []DeliveryLineRequest{{OrderItemID: order.Items[0].ID.String(), DeliveredQuantity: &qty}},
	})
	require.NoError(t, err)

	updated, warnings, err := f.svc.RecordReceipt(ctx, uuid.NewString(), order.ID.String(), RecordReceiptRequest{})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, model.OrderStatusReceived, updated.Status)

	// First defaults to delivered, second falls back to ordered
	require.NotNil(t, updated.Items[0].ReceivedQuantity)
	require.Equal(t, 8, *updated.Items[0].ReceivedQuantity)
	require.NotNil(t, updated.Items[1].ReceivedQuantity)
	require.Equal(t, 5, *updated.Items[1].ReceivedQuantity)
}

func TestRecordReceiptWarnsAboveDelivered(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, uuid.NewString(), validCreateRequest())
	require.NoError(t, err)

	delivered := 8
	_, _, err = f.svc.RecordDelivery(ctx, uuid.NewString(), order.ID.String(), RecordDeliveryRequest{
		Items: []DeliveryLineRequest{{OrderItemID: order.Items[0].ID.String(), DeliveredQuantity: &delivered}},
	})
	require.NoError(t, err)

	received := 12
	updated, warnings, err := f.svc.RecordReceipt(ctx, uuid.NewString(), order.ID.String(), RecordReceiptRequest{
		Items: []ReceiptLineRequest{{OrderItemID: order.Items[0].ID.String(), ReceivedQuantity: &received}},
	})
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusReceived, updated.Status)
	require.Len(t, warnings, 1)
	require.Equal(t, "received_quantity", warnings[0].Field)
	require.Equal(t, 8, warnings[0].Limit)
}

func TestGetOrderNotFound(t *testing.T) {
	f := newOrderServiceFixture()

	_, err := f.svc.GetOrder(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.svc.GetOrder(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrderSummaryComputesTotal(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()

	milk := model.Product{Name: "Whole Milk", Unit: "liter", UnitPrice: decimal.NewFromFloat(1.50)}
	require.NoError(t, f.products.Create(ctx, &milk))

	req := validCreateRequest()
	req.Items = req.Items[:1]
	req.Items[0].ProductID = milk.ID.String()
	req.Items[0].Quantity = 10

	order, err := f.svc.CreateOrder(ctx, uuid.NewString(), req)
	require.NoError(t, err)

	summary, err := f.svc.GetOrderSummary(ctx, order.ID.String())
	require.NoError(t, err)
	require.Equal(t, order.PoNumber, summary.PoNumber)
	require.True(t, summary.Total.Equal(decimal.NewFromFloat(15.0)), "got %s", summary.Total)
	require.Equal(t, 10, summary.ByProduct[milk.ID].TotalQuantity)
}

func TestRecordDeliveryOnMissingOrder(t *testing.T) {
	f := newOrderServiceFixture()

	qty := 1
	_, _, err := f.svc.RecordDelivery(context.Background(), uuid.NewString(), uuid.NewString(), RecordDeliveryRequest{
		Items: []DeliveryLineRequest{{OrderItemID: uuid.NewString(), DeliveredQuantity: &qty}},
	})
	require.True(t, errors.Is(err, ErrOrderNotFound))
}
