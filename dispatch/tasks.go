package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/inventory"
	"storefront/model"
	"storefront/utils"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConfirmationMailer interface {
	SendOrderConfirmation(to string, data utils.OrderConfirmationData, qrPNG []byte) error
}

type AlertMailer interface {
	SendLowStockAlert(to string, data utils.LowStockData) error
}

func loadOrder(ctx context.Context, db *gorm.DB, ev OrderPaidEvent) (*model.Order, *model.Store, error) {
	var o model.Order
	if err := db.WithContext(ctx).Preload("Items").First(&o, ev.OrderID).Error; err != nil {
		return nil, nil, fmt.Errorf("load order %d: %w", ev.OrderID, err)
	}
	var s model.Store
	if err := db.WithContext(ctx).First(&s, o.StoreID).Error; err != nil {
		return nil, nil, fmt.Errorf("load store %d: %w", o.StoreID, err)
	}
	return &o, &s, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ConfirmationEmail mails the buyer a summary with a QR of the order code.
type ConfirmationEmail struct {
	DB     *gorm.DB
	Mailer ConfirmationMailer
	AppURL string
}

func (t *ConfirmationEmail) Name() string { return "confirmation_email" }

func (t *ConfirmationEmail) Run(ctx context.Context, ev OrderPaidEvent) error {
	o, s, err := loadOrder(ctx, t.DB, ev)
	if err != nil {
		return err
	}
	if o.CustomerEmail == "" {
		return nil
	}

	data := utils.OrderConfirmationData{
		StoreName:     s.Name,
		OrderCode:     o.PublicCode,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName,
		Subtotal:      money(o.Subtotal),
		Discount:      money(o.DiscountAmount),
		Shipping:      money(o.Shipping),
		Total:         money(o.Total),
		Currency:      o.Currency,
		PaymentMethod: o.PaymentMethod,
		DetailLink:    fmt.Sprintf("%s/orders/%s", t.AppURL, o.PublicCode),
	}
	if o.GiftCardAmount.IsPositive() {
		data.GiftCard = money(o.GiftCardAmount)
	}
	if o.CreditUsed.IsPositive() {
		data.CreditUsed = money(o.CreditUsed)
	}
	for _, it := range o.Items {
		data.Items = append(data.Items, utils.OrderLine{
			Name:      it.Name,
			Variant:   it.VariantTitle,
			Quantity:  it.Quantity,
			LineTotal: money(it.LineTotal),
		})
	}

	qr, err := utils.GenerateQRCode(o.PublicCode, 256)
	if err != nil {
		return fmt.Errorf("order qr: %w", err)
	}
	return t.Mailer.SendOrderConfirmation(o.CustomerEmail, data, qr)
}

// LowStockAlert tells the store owner which ordered items fell to the
// store's threshold.
type LowStockAlert struct {
	DB     *gorm.DB
	Mailer AlertMailer
}

func (t *LowStockAlert) Name() string { return "low_stock_alert" }

func (t *LowStockAlert) Run(ctx context.Context, ev OrderPaidEvent) error {
	o, s, err := loadOrder(ctx, t.DB, ev)
	if err != nil {
		return err
	}
	if s.OwnerEmail == "" {
		return nil
	}
	low, err := inventory.LowStock(ctx, t.DB, o.Items, s.LowStockThreshold)
	if err != nil {
		return err
	}
	if len(low) == 0 {
		return nil
	}

	data := utils.LowStockData{StoreName: s.Name, Threshold: s.LowStockThreshold}
	for _, it := range low {
		data.Items = append(data.Items, utils.LowStockLine{Name: it.Name, Variant: it.VariantTitle, Inventory: it.Inventory})
	}
	return t.Mailer.SendLowStockAlert(s.OwnerEmail, data)
}

// LoyaltyAccrual credits floor(total * points-per-unit) points once per order.
// The unique order_id on the loyalty row makes retries and replays no-ops.
type LoyaltyAccrual struct {
	DB *gorm.DB
}

func (t *LoyaltyAccrual) Name() string { return "loyalty_accrual" }

func (t *LoyaltyAccrual) Run(ctx context.Context, ev OrderPaidEvent) error {
	o, s, err := loadOrder(ctx, t.DB, ev)
	if err != nil {
		return err
	}
	if o.CustomerID == nil {
		return nil
	}
	points := int(o.Total.Mul(s.LoyaltyPointsPerUnit).Floor().IntPart())
	if points <= 0 {
		return nil
	}

	return t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := model.LoyaltyTransaction{StoreID: o.StoreID, CustomerID: *o.CustomerID, OrderID: o.ID, Points: points}
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).Create(&entry)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&model.Customer{}).Where("id = ?", *o.CustomerID).
			Update("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error
	})
}

type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type RedisPublisher struct {
	Client *redis.Client
}

func (p RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.Client.Publish(ctx, channel, payload).Err()
}

func FeedChannel(storeID uint) string {
	return fmt.Sprintf("store:%d:orders", storeID)
}

type FeedMessage struct {
	Type        string     `json:"type"`
	OrderID     uint       `json:"orderId"`
	OrderNumber int64      `json:"orderNumber"`
	PublicCode  string     `json:"publicCode"`
	Total       string     `json:"total"`
	Currency    string     `json:"currency"`
	Source      string     `json:"source"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
}

// OrderFeed publishes paid orders to the store's live feed channel.
type OrderFeed struct {
	DB        *gorm.DB
	Publisher Publisher
}

func (t *OrderFeed) Name() string { return "order_feed" }

func (t *OrderFeed) Run(ctx context.Context, ev OrderPaidEvent) error {
	o, _, err := loadOrder(ctx, t.DB, ev)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(FeedMessage{
		Type:        "order.paid",
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		PublicCode:  o.PublicCode,
		Total:       money(o.Total),
		Currency:    o.Currency,
		Source:      ev.Source,
		PaidAt:      o.PaidAt,
	})
	if err != nil {
		return err
	}
	return t.Publisher.Publish(ctx, FeedChannel(o.StoreID), payload)
}
