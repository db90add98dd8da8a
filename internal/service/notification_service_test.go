package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/models"
	"github.com/laras-id/laras-api/internal/repository"
)

func newNotificationService(t *testing.T, withRedis bool) (NotificationService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)

	var client *redis.Client
	if withRedis {
		server := miniredis.RunT(t)
		client = redis.NewClient(&redis.Options{Addr: server.Addr()})
		t.Cleanup(func() { _ = client.Close() })
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewNotificationService(repository.NewNotificationRepository(db), client, "laras", nil, validate, zerolog.Nop())
	return svc, db
}

func TestPublishPersistsAndBroadcasts(t *testing.T) {
	svc, db := newNotificationService(t, false)
	ctx := context.Background()

	stream, cancel := svc.Subscribe(42)
	defer cancel()

	published, err := svc.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  42,
		Type:    "membership.approved",
		Message: "  Your join request was approved  ",
	})
	require.NoError(t, err)
	require.Equal(t, "Your join request was approved", published.Message, "message is trimmed before persisting")
	require.False(t, published.Read)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", 42).Count(&count).Error)
	require.EqualValues(t, 1, count)

	select {
	case received := <-stream:
		require.Equal(t, published.ID, received.ID)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the notification")
	}
}

func TestPublishValidatesPayload(t *testing.T) {
	svc, _ := newNotificationService(t, false)

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{UserID: 0, Type: "x", Message: "y"})
	require.Error(t, err)
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
}

func TestSubscribeDoesNotLeakAcrossUsers(t *testing.T) {
	svc, _ := newNotificationService(t, false)
	ctx := context.Background()

	stream, cancel := svc.Subscribe(1)
	defer cancel()

	_, err := svc.Publish(ctx, dto.NotificationCreateRequest{UserID: 2, Type: "test", Message: "for someone else"})
	require.NoError(t, err)

	select {
	case unexpected := <-stream:
		t.Fatalf("received notification for another user: %+v", unexpected)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishFansOutThroughRedis(t *testing.T) {
	svc, _ := newNotificationService(t, true)

	// Fan-out failures are swallowed; this just exercises the redis path.
	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  3,
		Type:    "session.scheduled",
		Message: "A session was booked",
	})
	require.NoError(t, err)
}

func TestListAndMarkRead(t *testing.T) {
	svc, _ := newNotificationService(t, false)
	ctx := context.Background()

	published, err := svc.Publish(ctx, dto.NotificationCreateRequest{UserID: 5, Type: "test", Message: "unread"})
	require.NoError(t, err)

	listed, err := svc.List(ctx, 5, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.False(t, listed[0].Read)

	read, err := svc.MarkRead(ctx, published.ID, 5)
	require.NoError(t, err)
	require.True(t, read.Read)

	// Another user cannot mark someone else's notification.
	_, err = svc.MarkRead(ctx, published.ID, 6)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	svc, _ := newNotificationService(t, false)

	stream, cancel := svc.Subscribe(7)
	cancel()

	_, open := <-stream
	require.False(t, open, "cancel closes the subscriber channel")
}
