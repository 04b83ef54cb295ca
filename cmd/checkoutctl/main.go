// Command checkoutctl runs store administration tasks against the checkout
// database: migrations, store setup, credit grants and gift card issuance.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"storefront/config"
	"storefront/database"
	"storefront/helper"
	"storefront/ledger"
	"storefront/model"
	"storefront/payment"
	"storefront/utils"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const usage = `usage: checkoutctl <command> [flags]

commands:
  migrate          create or update the schema
  seed             create the demo store
  create-store     -name -currency [-locale -owner -start]
  set-provider     -store -provider [-terminal -key -secret -base-url -sandbox]
  grant-credit     -customer -amount [-reason]
  issue-giftcard   -store -amount [-code -expires YYYY-MM-DD]
  ledger           -customer
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	db, err := database.Open(config.Load())
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := run(context.Background(), db, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, db *gorm.DB, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "migrate":
		return database.Migrate(db)
	case "seed":
		store, err := database.SeedData(db.WithContext(ctx))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "demo store %d: slug=%s feed-key=%s\n", store.ID, store.Slug, store.FeedKey)
		return nil
	case "create-store":
		return createStore(ctx, db, args, out)
	case "set-provider":
		return setProvider(ctx, db, args, out)
	case "grant-credit":
		return grantCredit(ctx, db, args, out)
	case "issue-giftcard":
		return issueGiftCard(ctx, db, args, out)
	case "ledger":
		return printLedger(ctx, db, args, out)
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid -amount %q: %w", s, err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, ledger.ErrInvalidAmount
	}
	return amount, nil
}

func createStore(ctx context.Context, db *gorm.DB, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-store", flag.ContinueOnError)
	name := fs.String("name", "", "store name")
	currency := fs.String("currency", "USD", "ISO currency code")
	locale := fs.String("locale", "en", "default buyer locale")
	owner := fs.String("owner", "", "owner email for stock alerts")
	start := fs.Int64("start", 1000, "order numbers start after this value")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return errors.New("-name is required")
	}

	store := model.Store{
		Name:              *name,
		Currency:          strings.ToUpper(*currency),
		Locale:            *locale,
		OwnerEmail:        *owner,
		FeedKey:           strings.ReplaceAll(uuid.NewString(), "-", ""),
		OrderNumberStart:  *start,
		LowStockThreshold: 5,
		Active:            true,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store.Slug = helper.GenerateUniqueStoreSlug(tx, *name)
		return tx.Create(&store).Error
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "store %d created: slug=%s feed-key=%s\n", store.ID, store.Slug, store.FeedKey)
	return nil
}

func setProvider(ctx context.Context, db *gorm.DB, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("set-provider", flag.ContinueOnError)
	storeID := fs.Uint("store", 0, "store id")
	provider := fs.String("provider", "sandbox", "sandbox, vnpay or cardgate")
	terminal := fs.String("terminal", "", "terminal / merchant id")
	key := fs.String("key", "", "API key")
	secret := fs.String("secret", "", "signing secret")
	baseURL := fs.String("base-url", "", "provider endpoint")
	sandbox := fs.Bool("sandbox", false, "simulate the provider locally")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *storeID == 0 {
		return errors.New("-store is required")
	}
	if !utils.IsValidValueOfConstant(*provider, payment.Providers) {
		return fmt.Errorf("unknown -provider %q, expected one of %s", *provider, strings.Join(payment.Providers, ", "))
	}

	cfg := model.PaymentProviderConfig{StoreID: uint(*storeID)}
	err := db.WithContext(ctx).
		Where(model.PaymentProviderConfig{StoreID: uint(*storeID)}).
		Assign(map[string]any{
			"provider":    *provider,
			"terminal_id": *terminal,
			"api_key":     *key,
			"secret":      *secret,
			"base_url":    *baseURL,
			"sandbox":     *sandbox,
			"active":      true,
		}).
		FirstOrCreate(&cfg).Error
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "store %d charges through %s (sandbox=%t)\n", cfg.StoreID, cfg.Provider, cfg.Sandbox)
	return nil
}

func grantCredit(ctx context.Context, db *gorm.DB, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("grant-credit", flag.ContinueOnError)
	customerID := fs.Uint("customer", 0, "customer id")
	amountStr := fs.String("amount", "", "credit to add")
	reason := fs.String("reason", "manual grant", "ledger reason")
	if err := fs.Parse(args); err != nil {
		return err
	}
	amount, err := parseAmount(*amountStr)
	if err != nil {
		return err
	}

	entry, err := ledger.GrantCredit(ctx, db, uint(*customerID), amount, *reason)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "customer %d credited %s, balance %s\n", entry.CustomerID, entry.Amount.StringFixed(2), entry.BalanceAfter.StringFixed(2))
	return nil
}

func issueGiftCard(ctx context.Context, db *gorm.DB, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("issue-giftcard", flag.ContinueOnError)
	storeID := fs.Uint("store", 0, "store id")
	code := fs.String("code", "", "card code, generated when empty")
	amountStr := fs.String("amount", "", "initial balance")
	expires := fs.String("expires", "", "expiry date YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	amount, err := parseAmount(*amountStr)
	if err != nil {
		return err
	}
	if *code == "" {
		*code = "GC-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	}
	var expiresAt *time.Time
	if *expires != "" {
		t, err := time.Parse("2006-01-02", *expires)
		if err != nil {
			return fmt.Errorf("invalid -expires %q: %w", *expires, err)
		}
		expiresAt = &t
	}

	card, err := ledger.IssueGiftCard(ctx, db, uint(*storeID), *code, amount, expiresAt)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "gift card %s issued with balance %s\n", card.Code, card.Balance.StringFixed(2))
	return nil
}

func printLedger(ctx context.Context, db *gorm.DB, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	customerID := fs.Uint("customer", 0, "customer id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var customer model.Customer
	if err := db.WithContext(ctx).First(&customer, *customerID).Error; err != nil {
		return fmt.Errorf("customer %d: %w", *customerID, err)
	}
	var entries []model.CreditTransaction
	if err := db.WithContext(ctx).Where("customer_id = ?", customer.ID).Order("id").Find(&entries).Error; err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (store %d) balance %s\n", customer.Email, customer.StoreID, customer.CreditBalance.StringFixed(2))
	table := tablewriter.NewWriter(out)
	table.Header("ID", "Date", "Type", "Amount", "Balance", "Order", "Reason")
	for _, e := range entries {
		orderRef := "-"
		if e.OrderID != nil {
			orderRef = fmt.Sprint(*e.OrderID)
		}
		if err := table.Append([]string{
			fmt.Sprint(e.ID),
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.Type,
			e.Amount.StringFixed(2),
			e.BalanceAfter.StringFixed(2),
			orderRef,
			e.Reason,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
