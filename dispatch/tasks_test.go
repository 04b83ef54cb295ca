package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"storefront/database/dbtest"
	"storefront/model"
	"storefront/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeMailer struct {
	mu            sync.Mutex
	confirmations []utils.OrderConfirmationData
	confirmTo     []string
	qr            []byte
	alerts        []utils.LowStockData
	alertTo       []string
}

func (m *fakeMailer) SendOrderConfirmation(to string, data utils.OrderConfirmationData, qrPNG []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmTo = append(m.confirmTo, to)
	m.confirmations = append(m.confirmations, data)
	m.qr = qrPNG
	return nil
}

func (m *fakeMailer) SendLowStockAlert(to string, data utils.LowStockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertTo = append(m.alertTo, to)
	m.alerts = append(m.alerts, data)
	return nil
}

type fakePublisher struct {
	channel string
	payload []byte
}

func (p *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.channel = channel
	p.payload = payload
	return nil
}

func paidOrder(t *testing.T, db *gorm.DB) (*model.Store, *model.Order) {
	t.Helper()
	store := dbtest.Store(t, db, "shop")
	customer := dbtest.Customer(t, db, store.ID, "buyer@example.com", "0")
	mug := dbtest.Product(t, db, store.ID, "Mug", "12.50", true, 1)
	book := dbtest.Product(t, db, store.ID, "Book", "30", true, 40)

	now := time.Now()
	o := &model.Order{
		StoreID:           store.ID,
		OrderNumber:       1001,
		PublicCode:        "ORD-TEST0001",
		CustomerID:        &customer.ID,
		Status:            model.OrderOpen,
		FinancialStatus:   model.FinancialPaid,
		FulfillmentStatus: model.FulfillmentUnfulfilled,
		Subtotal:          dbtest.D("55"),
		DiscountAmount:    dbtest.D("0"),
		Total:             dbtest.D("55"),
		Currency:          "USD",
		CustomerEmail:     customer.Email,
		CustomerName:      "Test Buyer",
		PaymentMethod:     "sandbox",
		PaidAt:            &now,
		Items: []model.OrderItem{
			{ProductID: mug.ID, Name: "Mug", UnitPrice: dbtest.D("12.50"), Quantity: 2, LineTotal: dbtest.D("25")},
			{ProductID: book.ID, Name: "Book", UnitPrice: dbtest.D("30"), Quantity: 1, LineTotal: dbtest.D("30")},
		},
	}
	require.NoError(t, db.Create(o).Error)
	return store, o
}

func TestConfirmationEmail(t *testing.T) {
	db := dbtest.New(t)
	store, o := paidOrder(t, db)
	mailer := &fakeMailer{}

	task := &ConfirmationEmail{DB: db, Mailer: mailer, AppURL: "https://shop.test"}
	require.NoError(t, task.Run(context.Background(), OrderPaidEvent{StoreID: store.ID, OrderID: o.ID}))

	require.Len(t, mailer.confirmations, 1)
	data := mailer.confirmations[0]
	assert.Equal(t, []string{"buyer@example.com"}, mailer.confirmTo)
	assert.Equal(t, "55.00", data.Total)
	assert.Equal(t, "https://shop.test/orders/ORD-TEST0001", data.DetailLink)
	assert.Len(t, data.Items, 2)
	assert.NotEmpty(t, mailer.qr)

	html, err := utils.RenderOrderConfirmation(data)
	require.NoError(t, err)
	assert.Contains(t, html, "ORD-TEST0001")
}

func TestLowStockAlert(t *testing.T) {
	db := dbtest.New(t)
	store, o := paidOrder(t, db)
	mailer := &fakeMailer{}

	task := &LowStockAlert{DB: db, Mailer: mailer}
	require.NoError(t, task.Run(context.Background(), OrderPaidEvent{StoreID: store.ID, OrderID: o.ID}))

	require.Len(t, mailer.alerts, 1)
	assert.Equal(t, []string{store.OwnerEmail}, mailer.alertTo)
	require.Len(t, mailer.alerts[0].Items, 1)
	assert.Equal(t, "Mug", mailer.alerts[0].Items[0].Name)
	assert.Contains(t, utils.RenderLowStockAlert(mailer.alerts[0]), "Mug: 1 left")
}

func TestLoyaltyAccrualIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	store, o := paidOrder(t, db)
	task := &LoyaltyAccrual{DB: db}
	ev := OrderPaidEvent{StoreID: store.ID, OrderID: o.ID}

	require.NoError(t, task.Run(context.Background(), ev))
	require.NoError(t, task.Run(context.Background(), ev))

	var customer model.Customer
	require.NoError(t, db.First(&customer, *o.CustomerID).Error)
	assert.Equal(t, 55, customer.LoyaltyPoints)

	var count int64
	require.NoError(t, db.Model(&model.LoyaltyTransaction{}).Where("order_id = ?", o.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestOrderFeed(t *testing.T) {
	db := dbtest.New(t)
	store, o := paidOrder(t, db)
	pub := &fakePublisher{}

	task := &OrderFeed{DB: db, Publisher: pub}
	require.NoError(t, task.Run(context.Background(), OrderPaidEvent{StoreID: store.ID, OrderID: o.ID, Source: "sandbox"}))

	assert.Equal(t, FeedChannel(store.ID), pub.channel)
	var msg FeedMessage
	require.NoError(t, json.Unmarshal(pub.payload, &msg))
	assert.Equal(t, "order.paid", msg.Type)
	assert.Equal(t, int64(1001), msg.OrderNumber)
	assert.Equal(t, "55.00", msg.Total)
}
