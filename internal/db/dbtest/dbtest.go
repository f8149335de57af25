// Package dbtest opens throwaway databases for package tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dan9191/bnpl-service/internal/db"
	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/Dan9191/bnpl-service/internal/money"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Open returns a migrated in-memory database private to the test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:bnpl_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), seq.Add(1))
	return open(t, dsn)
}

// OpenFile returns a migrated database backed by a file in the test's temp dir.
// Use it when transactions must run on separate connections.
func OpenFile(t *testing.T) *gorm.DB {
	t.Helper()
	return open(t, "file:"+filepath.Join(t.TempDir(), "bnpl.db"))
}

func open(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	conn, errOpen := db.Open(dsn, nil)
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// Customer creates a user with an account carrying the given limit and balance.
func Customer(t *testing.T, conn *gorm.DB, username string, limit, balance money.Amount) (*models.User, *models.Account) {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	account := &models.Account{UserID: user.ID, CreditLimit: limit, BalanceDue: balance}
	if err := conn.Create(account).Error; err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return user, account
}

// Merchant creates a merchant operated by a fresh user.
func Merchant(t *testing.T, conn *gorm.DB, name string) (*models.Merchant, *models.User) {
	t.Helper()
	operator := &models.User{
		Username:     name + "-op",
		Email:        name + "-op@example.com",
		PasswordHash: "x",
	}
	if err := conn.Create(operator).Error; err != nil {
		t.Fatalf("create operator: %v", err)
	}
	merchant := &models.Merchant{Name: name, TaxID: fmt.Sprintf("TAX-%s-%d", name, seq.Add(1)), Status: models.MerchantStatusActive}
	if err := conn.Create(merchant).Error; err != nil {
		t.Fatalf("create merchant: %v", err)
	}
	link := &models.MerchantUser{MerchantID: merchant.ID, UserID: operator.ID}
	if err := conn.Omit("Merchant").Create(link).Error; err != nil {
		t.Fatalf("link operator: %v", err)
	}
	return merchant, operator
}

// Request creates a PENDING payment request.
func Request(t *testing.T, conn *gorm.DB, merchant *models.Merchant, amount money.Amount) *models.PaymentRequest {
	t.Helper()
	req := &models.PaymentRequest{MerchantID: merchant.ID, Amount: amount, Status: models.PaymentRequestPending}
	if err := conn.Omit("Merchant").Create(req).Error; err != nil {
		t.Fatalf("create payment request: %v", err)
	}
	return req
}
