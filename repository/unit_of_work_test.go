package repository

import (
	"context"
	"testing"
	"time"

	"refbot/events"
	"refbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitPersists(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	bus := events.NewBus()
	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	created, err := uow.Users().Create(ctx, 100, 100)
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, uow.Commit())

	// Visible outside the transaction
	repo := NewUserRepository(testDB.DB)
	user, err := repo.GetByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.NotNil(t, user)
}

func TestUnitOfWork_RollbackDiscards(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	bus := events.NewBus()
	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	created, err := uow.Users().Create(ctx, 100, 100)
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, uow.Rollback())

	repo := NewUserRepository(testDB.DB)
	user, err := repo.GetByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUnitOfWork_EventsFollowTransactionOutcome(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	bus := events.NewBus()
	received := make(chan events.Event, 4)
	bus.Subscribe(events.EventTypeUserRegistered, func(ctx context.Context, event events.Event) {
		received <- event
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	ctx := context.Background()

	t.Run("rolled back events are discarded", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		uow.EventBus().Publish(events.UserRegisteredEvent{TelegramID: 1})
		require.NoError(t, uow.Rollback())

		select {
		case <-received:
			t.Fatal("event emitted despite rollback")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("committed events are emitted", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		uow.EventBus().Publish(events.UserRegisteredEvent{TelegramID: 2})
		require.NoError(t, uow.Commit())

		select {
		case event := <-received:
			registered, ok := event.(events.UserRegisteredEvent)
			require.True(t, ok)
			assert.Equal(t, int64(2), registered.TelegramID)
		case <-time.After(2 * time.Second):
			t.Fatal("event never emitted after commit")
		}
	})
}
