package ledger

import (
	"context"
	"sync"
	"testing"

	"storefront/database/dbtest"
	"storefront/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRedeemGiftCardNeverOverdraws(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, "shop")
	card := dbtest.GiftCard(t, db, store.ID, "GC-100", "100")
	ctx := context.Background()

	var (
		mu       sync.Mutex
		redeemed = decimal.Zero
		rejected int
		wg       sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				_, err := RedeemGiftCard(ctx, tx, card.ID, dbtest.D("30"), nil)
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, ErrInsufficientBalance)
				rejected++
				return
			}
			redeemed = redeemed.Add(dbtest.D("30"))
		}()
	}
	wg.Wait()

	assert.True(t, redeemed.Equal(dbtest.D("90")), "redeemed %s", redeemed)
	assert.Equal(t, 7, rejected)

	var got model.GiftCard
	require.NoError(t, db.First(&got, card.ID).Error)
	assert.True(t, got.Balance.Equal(dbtest.D("10")), "balance %s", got.Balance)
	assert.Equal(t, model.GiftCardActive, got.Status)

	var entries []model.GiftCardTransaction
	require.NoError(t, db.Where("gift_card_id = ?", card.ID).Order("id").Find(&entries).Error)
	require.Len(t, entries, 3)
	assert.True(t, entries[2].BalanceAfter.Equal(dbtest.D("10")))
}

func TestRedeemGiftCardMarksUsed(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, "shop")
	card := dbtest.GiftCard(t, db, store.ID, "GC-25", "25")
	orderID := uint(7)

	entry, err := RedeemGiftCard(context.Background(), db, card.ID, dbtest.D("25"), &orderID)
	require.NoError(t, err)
	assert.True(t, entry.BalanceAfter.IsZero())
	assert.Equal(t, &orderID, entry.OrderID)

	var got model.GiftCard
	require.NoError(t, db.First(&got, card.ID).Error)
	assert.Equal(t, model.GiftCardUsed, got.Status)

	_, err = RedeemGiftCard(context.Background(), db, card.ID, dbtest.D("1"), nil)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestDebitCredit(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, "shop")
	customer := dbtest.Customer(t, db, store.ID, "a@example.com", "50")
	ctx := context.Background()

	_, err := DebitCredit(ctx, db, customer.ID, dbtest.D("60"), nil, "order")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	entry, err := DebitCredit(ctx, db, customer.ID, dbtest.D("20"), nil, "order")
	require.NoError(t, err)
	assert.Equal(t, model.LedgerDebit, entry.Type)
	assert.Equal(t, store.ID, entry.StoreID)
	assert.True(t, entry.BalanceAfter.Equal(dbtest.D("30")))

	_, err = DebitCredit(ctx, db, customer.ID, decimal.Zero, nil, "order")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	granted, err := GrantCredit(ctx, db, customer.ID, dbtest.D("5"), "refund")
	require.NoError(t, err)
	assert.True(t, granted.BalanceAfter.Equal(dbtest.D("35")))

	var got model.Customer
	require.NoError(t, db.First(&got, customer.ID).Error)
	assert.True(t, got.CreditBalance.Equal(dbtest.D("35")))

	var count int64
	require.NoError(t, db.Model(&model.CreditTransaction{}).Where("customer_id = ?", customer.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestGrantCreditUnknownCustomer(t *testing.T) {
	db := dbtest.New(t)
	_, err := GrantCredit(context.Background(), db, 999, dbtest.D("5"), "refund")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestClaimCoupon(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, "shop")
	one := 1
	limited := dbtest.Coupon(t, db, store.ID, "ONCE", model.DiscountPercentage, "10", &one)
	open := dbtest.Coupon(t, db, store.ID, "ALWAYS", model.DiscountPercentage, "10", nil)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				_, err := ClaimCoupon(ctx, tx, limited.ID)
				return err
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrUsageLimitReached)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)

	for i := 1; i <= 3; i++ {
		n, err := ClaimCoupon(ctx, db, open.ID)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
}

func TestIssueGiftCard(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, "shop")

	card, err := IssueGiftCard(context.Background(), db, store.ID, "NEW-1", dbtest.D("40"), nil)
	require.NoError(t, err)
	assert.Equal(t, model.GiftCardActive, card.Status)

	var entry model.GiftCardTransaction
	require.NoError(t, db.Where("gift_card_id = ?", card.ID).First(&entry).Error)
	assert.Equal(t, model.LedgerIssue, entry.Type)
	assert.True(t, entry.BalanceAfter.Equal(dbtest.D("40")))
}
