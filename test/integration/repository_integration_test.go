package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"globomart/internal/events"
	"globomart/internal/model"
	"globomart/internal/repository"
	"globomart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTransitions_Concurrent_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	CleanupDB(t, testDB.Pool)
	admin := SeedUser(t, testDB.Pool, "Admin", "admin@example.com", "adminpass", model.RoleAdmin)
	buyer := SeedUser(t, testDB.Pool, "Ada", "ada@example.com", "userpass", model.RoleUser)
	products := SeedProducts(t, testDB.Pool, admin.ID)
	tent := products[2]

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	orders := service.NewOrderService(orderRepo, productRepo, events.NewNopPublisher(logger), logger)

	order, err := orders.Create(ctx, buyer.ID, &model.OrderRequest{
		Items:        []model.OrderItem{{ProductID: tent.ID, Name: tent.Name, Quantity: 2, Price: tent.Price}},
		ShippingInfo: shipping(),
		ItemsPrice:   398,
		TotalAmount:  398,
	})
	require.NoError(t, err)

	const workers = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orders.UpdateStatus(ctx, order.ID, model.OrderStatusShipped)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, err := range failures {
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	}

	got, err := productRepo.GetByID(ctx, tent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	stored, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, stored.OrderStatus)
}

func TestProcessedEvents_Concurrent_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	CleanupDB(t, testDB.Pool)
	buyer := SeedUser(t, testDB.Pool, "Ada", "ada@example.com", "userpass", model.RoleUser)

	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	eventRepo := repository.NewProcessedEventRepository(testDB.Pool, logger)

	const workers = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			tx, err := orderRepo.BeginTx(ctx)
			if !assert.NoError(t, err) {
				return
			}
			defer tx.Rollback(ctx)

			order := &model.Order{
				ID:            uuid.New(),
				UserID:        buyer.ID,
				Items:         []model.OrderItem{{ProductID: uuid.New(), Name: "Gift card", Quantity: 1, Price: 50}},
				ShippingInfo:  shipping(),
				ItemsPrice:    50,
				TotalAmount:   50,
				PaymentMethod: model.PaymentMethodCard,
				PaymentInfo:   model.PaymentInfo{ID: "pi_race", Status: model.PaymentStatusPaid},
				OrderStatus:   model.OrderStatusProcessing,
				CreatedAt:     time.Now().UTC(),
			}

			ok, err := eventRepo.MarkProcessed(ctx, tx, "evt_race", "checkout.session.completed", order.ID)
			if !assert.NoError(t, err) || !ok {
				return
			}
			if !assert.NoError(t, orderRepo.CreateOrder(ctx, tx, order)) {
				return
			}
			if !assert.NoError(t, orderRepo.CreateOrderItems(ctx, tx, order.ID, order.Items)) {
				return
			}
			if !assert.NoError(t, tx.Commit(ctx)) {
				return
			}

			mu.Lock()
			created++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)

	processed, err := eventRepo.IsProcessed(ctx, "evt_race")
	require.NoError(t, err)
	assert.True(t, processed)

	list, err := orderRepo.ListByUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
