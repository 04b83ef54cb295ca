// Package ledger mutates balance-bearing resources: store credit, gift cards
// and coupon usage counters.
//
// Every decrement is a single conditional UPDATE guarded by the current value
// of the row. Whether it succeeded is decided by the number of rows it
// touched, never by an earlier read. The balance written to the audit row is
// the one the UPDATE returned.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/database"
	"storefront/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUsageLimitReached   = errors.New("coupon usage limit reached")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// updateReturning runs "UPDATE table SET set WHERE id = ? AND where" and scans
// cols of the updated row into dest. Without RETURNING support the row is read
// back inside the same transaction, where the UPDATE still holds its lock.
func updateReturning(ctx context.Context, tx *gorm.DB, table string, id uint, set string, setArgs []any, where string, whereArgs []any, cols string, dest any) (bool, error) {
	db := tx.WithContext(ctx)
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, set)
	if where != "" {
		stmt += " AND " + where
	}
	args := append(append(append([]any{}, setArgs...), id), whereArgs...)

	if database.SupportsReturning(db) {
		res := db.Raw(stmt+" RETURNING "+cols, args...).Scan(dest)
		if res.Error != nil {
			return false, res.Error
		}
		return res.RowsAffected > 0, nil
	}

	res := db.Exec(stmt, args...)
	if res.Error != nil || res.RowsAffected == 0 {
		return false, res.Error
	}
	if err := db.Raw(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", cols, table), id).Scan(dest).Error; err != nil {
		return false, err
	}
	return true, nil
}

// DebitCredit subtracts amount from a customer's credit balance if the balance
// covers it, and records the debit.
func DebitCredit(ctx context.Context, tx *gorm.DB, customerID uint, amount decimal.Decimal, orderID *uint, reason string) (*model.CreditTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	var row struct {
		StoreID       uint
		CreditBalance decimal.Decimal
	}
	ok, err := updateReturning(ctx, tx, "customers", customerID,
		"credit_balance = credit_balance - ?, updated_at = ?", []any{amount, time.Now()},
		"credit_balance >= ?", []any{amount},
		"store_id, credit_balance", &row)
	if err != nil {
		return nil, fmt.Errorf("debit credit: %w", err)
	}
	if !ok {
		return nil, ErrInsufficientBalance
	}

	entry := &model.CreditTransaction{
		StoreID:      row.StoreID,
		CustomerID:   customerID,
		OrderID:      orderID,
		Type:         model.LedgerDebit,
		Amount:       amount,
		BalanceAfter: row.CreditBalance,
		Reason:       reason,
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("record credit debit: %w", err)
	}
	return entry, nil
}

// GrantCredit adds to a customer's credit balance. Used for refunds and
// goodwill credit.
func GrantCredit(ctx context.Context, db *gorm.DB, customerID uint, amount decimal.Decimal, reason string) (*model.CreditTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	var entry *model.CreditTransaction
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row struct {
			StoreID       uint
			CreditBalance decimal.Decimal
		}
		ok, err := updateReturning(ctx, tx, "customers", customerID,
			"credit_balance = credit_balance + ?, updated_at = ?", []any{amount, time.Now()},
			"", nil, "store_id, credit_balance", &row)
		if err != nil {
			return err
		}
		if !ok {
			return gorm.ErrRecordNotFound
		}
		entry = &model.CreditTransaction{
			StoreID:      row.StoreID,
			CustomerID:   customerID,
			Type:         model.LedgerCredit,
			Amount:       amount,
			BalanceAfter: row.CreditBalance,
			Reason:       reason,
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, fmt.Errorf("grant credit: %w", err)
	}
	return entry, nil
}

// RedeemGiftCard takes amount off an active card if its balance covers it. The
// card flips to used in the same statement when nothing is left.
func RedeemGiftCard(ctx context.Context, tx *gorm.DB, giftCardID uint, amount decimal.Decimal, orderID *uint) (*model.GiftCardTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	var row struct {
		Balance decimal.Decimal
		Status  string
	}
	// status is assigned first: MySQL evaluates SET left to right against the
	// already-updated columns.
	ok, err := updateReturning(ctx, tx, "gift_cards", giftCardID,
		"status = CASE WHEN balance - ? <= 0 THEN ? ELSE status END, balance = balance - ?, updated_at = ?",
		[]any{amount, model.GiftCardUsed, amount, time.Now()},
		"status = ? AND balance >= ?", []any{model.GiftCardActive, amount},
		"balance, status", &row)
	if err != nil {
		return nil, fmt.Errorf("redeem gift card: %w", err)
	}
	if !ok {
		return nil, ErrInsufficientBalance
	}

	entry := &model.GiftCardTransaction{
		GiftCardID:   giftCardID,
		OrderID:      orderID,
		Type:         model.LedgerDebit,
		Amount:       amount,
		BalanceAfter: row.Balance,
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("record gift card debit: %w", err)
	}
	return entry, nil
}

func IssueGiftCard(ctx context.Context, db *gorm.DB, storeID uint, code string, amount decimal.Decimal, expiresAt *time.Time) (*model.GiftCard, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	card := &model.GiftCard{
		StoreID:        storeID,
		Code:           code,
		InitialBalance: amount,
		Balance:        amount,
		Status:         model.GiftCardActive,
		ExpiresAt:      expiresAt,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(card).Error; err != nil {
			return err
		}
		return tx.Create(&model.GiftCardTransaction{
			GiftCardID:   card.ID,
			Type:         model.LedgerIssue,
			Amount:       amount,
			BalanceAfter: amount,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("issue gift card: %w", err)
	}
	return card, nil
}

// ClaimCoupon counts one use of a coupon. Coupons without a limit always
// succeed; limited ones only while usage is below the limit.
func ClaimCoupon(ctx context.Context, tx *gorm.DB, couponID uint) (int, error) {
	var row struct {
		UsageCount int
	}
	ok, err := updateReturning(ctx, tx, "coupons", couponID,
		"usage_count = usage_count + 1, updated_at = ?", []any{time.Now()},
		"(usage_limit IS NULL OR usage_count < usage_limit)", nil,
		"usage_count", &row)
	if err != nil {
		return 0, fmt.Errorf("claim coupon: %w", err)
	}
	if !ok {
		return 0, ErrUsageLimitReached
	}
	return row.UsageCount, nil
}
