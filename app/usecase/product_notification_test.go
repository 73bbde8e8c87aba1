package usecase

import (
	"context"
	"stock-notification-service/app/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductNotificationUsecase() (domain.ProductNotificationService, *memoryNotificationRepo) {
	repo := newMemoryNotificationRepo()
	products := memoryProductRepo{productP: {ID: productP, Title: "product_1"}}
	return NewProductNotificationUsecase(repo, products), repo
}

func TestCreateProductNotificationDefaultsToUnconfirmed(t *testing.T) {
	u, repo := newProductNotificationUsecase()

	n, err := u.Create(context.Background(), domain.ProductNotificationCreateRequest{
		ProductID: productP,
		Email:     "anonymous@test.com",
	})
	require.NoError(t, err)

	assert.NotZero(t, n.ID)
	assert.False(t, n.IsActive())
	assert.False(t, n.IsConfirmed())
	assert.Equal(t, domain.NotificationStatusUnconfirmed, repo.get(n.ID).Status)
}

func TestCreateProductNotificationConfirmedUser(t *testing.T) {
	u, _ := newProductNotificationUsecase()
	userID := userA

	n, err := u.Create(context.Background(), domain.ProductNotificationCreateRequest{
		ProductID: productP,
		UserID:    &userID,
		Status:    domain.NotificationStatusActive,
	})
	require.NoError(t, err)

	assert.True(t, n.IsActive())
	require.NotNil(t, n.UserID)
	assert.Equal(t, userA, *n.UserID)
	assert.Empty(t, n.Email)
}

func TestCreateProductNotificationRejectsInvalidRecipients(t *testing.T) {
	u, _ := newProductNotificationUsecase()
	userID := userA

	_, err := u.Create(context.Background(), domain.ProductNotificationCreateRequest{
		ProductID: productP,
		UserID:    &userID,
		Email:     "both@test.com",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = u.Create(context.Background(), domain.ProductNotificationCreateRequest{ProductID: productP})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = u.Create(context.Background(), domain.ProductNotificationCreateRequest{ProductID: 404, Email: "a@test.com"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetProductNotificationsByStatus(t *testing.T) {
	u, repo := newProductNotificationUsecase()
	repo.add(activeForEmail(productP, "a@test.com"))
	repo.add(domain.ProductNotification{ProductID: productP, Email: "b@test.com", Status: domain.NotificationStatusUnconfirmed})
	repo.add(activeForUser(productP, userA))

	active, err := u.GetByProductID(context.Background(), productP, domain.NotificationStatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := u.GetByProductID(context.Background(), productP, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = u.GetByProductID(context.Background(), productP, "PAUSED")
	assert.ErrorIs(t, err, domain.ErrValidation)

	mine, err := u.GetByUserID(context.Background(), userA)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
