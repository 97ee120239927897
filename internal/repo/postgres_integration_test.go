package repo

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
)

func setupPostgres(t *testing.T) *GormRepo {
	t.Helper()
	if os.Getenv("STOREFRONT_INTEGRATION") != "1" {
		t.Skip("set STOREFRONT_INTEGRATION=1 to run postgres tests")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.MigrateUp(dsn))

	gdb, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	return New(gdb)
}

func TestPostgres_UserGateAndCartCAS(t *testing.T) {
	r := setupPostgres(t)
	ctx := context.Background()

	u := &models.User{Name: "PG", Email: "PG@Example.com", Role: models.RoleUser}
	require.NoError(t, r.CreateUser(ctx, u, "pg-password"))
	assert.ErrorIs(t, r.CreateUser(ctx, &models.User{Name: "Dup", Email: "pg@example.com", Role: models.RoleUser}, "pg-password"), ErrDuplicate)

	stored, err := r.GetUserByEmail(ctx, "pg@example.com")
	require.NoError(t, err)
	assert.True(t, hash.CheckPassword(stored.PasswordHash, "pg-password"))

	cart := &models.Cart{UserID: u.ID, Items: []models.CartLine{{ProductID: uuid.New(), Quantity: 1, Price: decimal.NewFromInt(5)}}, TotalPrice: decimal.NewFromInt(5)}
	require.NoError(t, r.InsertCart(ctx, cart))
	assert.ErrorIs(t, r.InsertCart(ctx, &models.Cart{UserID: u.ID}), ErrDuplicate)

	a, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	b, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)

	a.Items[0].Quantity = 2
	a.TotalPrice = decimal.NewFromInt(10)
	require.NoError(t, r.SaveCart(ctx, a))

	b.Items[0].Quantity = 7
	assert.ErrorIs(t, r.SaveCart(ctx, b), ErrStaleRevision)

	got, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(10).Equal(got.TotalPrice))
}

func TestPostgres_ConcurrentCartWriters(t *testing.T) {
	r := setupPostgres(t)
	ctx := context.Background()

	u := &models.User{Name: "Racer", Email: "racer@example.com", Role: models.RoleUser}
	require.NoError(t, r.CreateUser(ctx, u, "pg-password"))
	require.NoError(t, r.InsertCart(ctx, &models.Cart{UserID: u.ID, TotalPrice: decimal.Zero}))

	const writers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := r.GetCart(ctx, u.ID)
			if !assert.NoError(t, err) {
				return
			}
			c.TotalPrice = c.TotalPrice.Add(decimal.NewFromInt(1))
			if err := r.SaveCart(ctx, c); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrStaleRevision)
			}
		}()
	}
	wg.Wait()

	got, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(int64(wins)).Equal(got.TotalPrice))
	assert.EqualValues(t, 1+wins, got.Revision)
}
