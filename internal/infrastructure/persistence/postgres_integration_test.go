//go:build integration

package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apptrade "github.com/d2bcart/backend/internal/application/trade"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/domain/tax"
	domaintrade "github.com/d2bcart/backend/internal/domain/trade"
	"github.com/d2bcart/backend/internal/infrastructure/migration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPostgres starts a disposable PostgreSQL container and applies the
// real migrations to it
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("d2b_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migrationsDir(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

func createPostgresManufacturer(t *testing.T, db *gorm.DB, email, phone string) *identity.User {
	t.Helper()
	u, err := identity.NewUser(identity.RoleManufacturer, "Sharma Steels", email, phone, "Secret123!", identity.BusinessProfile{
		BusinessName: "Sharma Steels",
		State:        "Maharashtra",
	})
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Create(context.Background(), u))
	return u
}

func TestPostgres_UserUniqueness(t *testing.T) {
	db := setupPostgres(t)
	createPostgresManufacturer(t, db, "owner@sharma.in", "9876543210")

	dup, err := identity.NewUser(identity.RoleRetailer, "Other", "owner@sharma.in", "9123456780", "Secret123!", identity.BusinessProfile{})
	require.NoError(t, err)

	err = NewGormUserRepository(db).Create(context.Background(), dup)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestPostgres_DecrementStockUnderContention(t *testing.T) {
	db := setupPostgres(t)
	mfr := createPostgresManufacturer(t, db, "stock@sharma.in", "9876500000")
	product := createTestProduct(t, db, mfr.ID, "TMB-RACE", 20)
	repo := NewGormProductRepository(db)

	const buyers = 10
	var (
		wg      sync.WaitGroup
		success atomic.Int32
		short   atomic.Int32
	)
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.DecrementStock(context.Background(), product.ID, 3)
			switch {
			case err == nil:
				success.Add(1)
			case errors.Is(err, shared.ErrInsufficientStock):
				short.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(6), success.Load())
	assert.Equal(t, int32(buyers-6), short.Load())

	loaded, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Stock)
}

func TestPostgres_UnknownProductIsNotFound(t *testing.T) {
	db := setupPostgres(t)

	_, err := NewGormProductRepository(db).FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// Client callback and gateway webhook race on the same attempt; only one of
// them may create orders
func TestPostgres_MaterializeConcurrentDeliveries(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	makerA := createPostgresManufacturer(t, db, "a@makers.in", "9876511111")
	makerB := createPostgresManufacturer(t, db, "b@makers.in", "9876522222")
	retailer, err := identity.NewUser(identity.RoleRetailer, "Kirana Mart", "shop@kirana.in", "9876533333", "Secret123!", identity.BusinessProfile{})
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Create(ctx, retailer))

	productA := createTestProduct(t, db, makerA.ID, "SP-1", 50)
	productB := createTestProduct(t, db, makerB.ID, "CP-1", 50)

	shipA, shipB := decimal.NewFromInt(50), decimal.NewFromInt(70)
	snap := domaintrade.Snapshot{
		Lines: []domaintrade.SnapshotLine{
			{ProductID: productA.ID, ManufacturerID: makerA.ID, Name: productA.Name, SKU: "SP-1",
				Quantity: 10, UnitDisplayPrice: productA.DisplayPrice, UnitBasePrice: productA.BasePrice, GSTRate: 18},
			{ProductID: productB.ID, ManufacturerID: makerB.ID, Name: productB.Name, SKU: "CP-1",
				Quantity: 5, UnitDisplayPrice: productB.DisplayPrice, UnitBasePrice: productB.BasePrice, GSTRate: 18},
		},
		Groups: []domaintrade.SnapshotGroup{
			{ManufacturerID: makerA.ID, TaxType: tax.IntraState, ShippingCost: &shipA},
			{ManufacturerID: makerB.ID, TaxType: tax.InterState, ShippingCost: &shipB},
		},
	}
	// 15 units at 110 display, 18% GST, 120 shipping
	totals := domaintrade.Totals{
		ItemsTotal:    decimal.RequireFromString("1650"),
		TaxTotal:      decimal.RequireFromString("297"),
		ShippingTotal: decimal.RequireFromString("120"),
		GrandTotal:    decimal.RequireFromString("2067"),
		AmountPayable: decimal.RequireFromString("2067"),
	}
	attempt, err := domaintrade.NewPaymentAttempt(retailer.ID, domaintrade.PaymentModeFull, snap, valueobject.Address{
		Name:    "Kirana Mart",
		Phone:   "+919876533333",
		Line1:   "12 MG Road",
		City:    "Pune",
		State:   "Maharashtra",
		Pincode: "411001",
	}, totals, valueobject.Attribution{UTMSource: "whatsapp"})
	require.NoError(t, err)
	require.NoError(t, attempt.AttachGatewayOrder("order_PG_RACE"))

	attempts := NewGormPaymentAttemptRepository(db)
	require.NoError(t, attempts.Create(ctx, attempt))

	materializer := apptrade.NewMaterializer(
		attempts,
		NewGormOrderRepository(db),
		NewGormTransactionScope(db),
		nil, nil,
		zap.NewNop(),
	)

	const deliveries = 5
	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	for range deliveries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loaded, err := attempts.FindByID(ctx, attempt.ID)
			if err != nil {
				t.Errorf("load attempt: %v", err)
				return
			}
			result, err := materializer.Materialize(ctx, loaded, "pay_PG_RACE", totals.AmountPayable)
			if err != nil {
				t.Errorf("materialize: %v", err)
				return
			}
			if !result.AlreadyProcessed {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())

	orders, err := NewGormOrderRepository(db).FindByPaymentAttemptID(ctx, attempt.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	paid := decimal.Zero
	for _, o := range orders {
		paid = paid.Add(o.AmountPaid)
	}
	assert.True(t, paid.Equal(totals.AmountPayable), "paid splits sum to %s, got %s", totals.AmountPayable, paid)

	stored, err := attempts.FindByID(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, domaintrade.AttemptStatusCompleted, stored.Status)

	products := NewGormProductRepository(db)
	a, err := products.FindByID(ctx, productA.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, a.Stock)
	b, err := products.FindByID(ctx, productB.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, b.Stock)
}
