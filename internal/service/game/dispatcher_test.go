package game_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardroom-service/internal/service/game"
	"cardroom-service/internal/service/game/mocks"
	appErr "cardroom-service/pkg/errors"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDispatchRejectsConcurrentAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	accessory := mocks.NewMockAccessoryHandler(ctrl)

	entered := make(chan struct{})
	release := make(chan struct{})
	accessory.EXPECT().
		HandleAccessory(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req game.AccessoryRequest) (bool, error) {
			assert.Equal(t, "shop_peek", req.ActionID)
			close(entered)
			<-release
			return true, nil
		}).
		Times(1)

	svc := newTestService(t, game.DefaultConfig(), nil, game.WithAccessoryHandler(accessory))
	sess := startBlackjack(t, svc, "Tc 5d 9c 7s 2h 3h", 100, 1)
	ctx := context.Background()

	var (
		wg       conc.WaitGroup
		firstErr error
	)
	wg.Go(func() { firstErr = sess.Dispatch(ctx, "p1", "shop_peek") })
	<-entered

	err := sess.Dispatch(ctx, "p1", "hit")
	require.ErrorIs(t, err, game.ErrSessionBusy)
	assert.Equal(t, game.AckBusy, game.Classify(err))
	assert.Contains(t, err.Error(), "please wait")

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, []string{"Tc", "5d"}, sess.View("p1").MyCards)

	// the flag is released once the first action returns
	require.NoError(t, sess.Dispatch(ctx, "p1", "hit"))
	assert.Equal(t, []string{"Tc", "5d", "2h"}, sess.View("p1").MyCards)
}

func TestUnhandledAccessoryFallsThroughToGame(t *testing.T) {
	ctrl := gomock.NewController(t)
	accessory := mocks.NewMockAccessoryHandler(ctrl)
	accessory.EXPECT().HandleAccessory(gomock.Any(), gomock.Any()).Return(false, nil)

	svc := newTestService(t, game.DefaultConfig(), nil, game.WithAccessoryHandler(accessory))
	sess := startBlackjack(t, svc, "Tc 5d 9c 7s 2h 3h", 100, 1)

	err := sess.Dispatch(context.Background(), "p1", "shop_unknown")
	assert.ErrorIs(t, err, game.ErrIllegalAction)
}

func TestFinishIsExactlyOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedger(ctrl)
	ledger.EXPECT().
		Finish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req game.FinishRequest) error {
			assert.Equal(t, "admin", req.WinnerName)
			assert.Nil(t, req.WinnerID)
			return nil
		}).
		Times(1)

	svc := newTestService(t, game.DefaultConfig(), ledger)
	sess := startBlackjack(t, svc, "Tc 5d 9c 7s 2h 3h", 100, 1)
	ctx := context.Background()

	require.NoError(t, sess.Finish(ctx, "admin", nil))
	assert.ErrorIs(t, sess.Finish(ctx, "admin", nil), game.ErrSessionFinished)

	err := sess.Dispatch(ctx, "p1", "hit")
	assert.ErrorIs(t, err, game.ErrSessionFinished)
	assert.Equal(t, game.AckFinished, game.Classify(err))
	assert.Empty(t, sess.View("p1").TurnPlayer)
}

func TestLedgerFailureDoesNotReopenSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedger(ctrl)
	ledger.EXPECT().Settle(gomock.Any(), gomock.Any()).Return(errors.New("db down")).Times(1)
	ledger.EXPECT().Finish(gomock.Any(), gomock.Any()).Return(errors.New("db down")).Times(1)

	svc := newTestService(t, game.DefaultConfig(), ledger)
	sess := startBlackjack(t, svc, "Tc As 9d 7h", 100, 1)

	require.True(t, sess.Finished())
	assert.ErrorIs(t, sess.Finish(context.Background(), "", nil), game.ErrSessionFinished)
}

func TestSessionLockLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := mocks.NewMockSessionLocker(ctrl)

	released := make(chan struct{})
	locker.EXPECT().Acquire(gomock.Any(), "p1", gomock.Any()).Return(nil)
	locker.EXPECT().
		Release(gomock.Any(), "p1", gomock.Any()).
		DoAndReturn(func(context.Context, string, string) error {
			close(released)
			return nil
		})

	svc := newTestService(t, game.DefaultConfig(), nil, game.WithSessionLocker(locker))
	startBlackjack(t, svc, "Tc As 9d 7h", 100, 1)

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatalf("session lock was not released after the game ended")
	}
}

func TestSessionLockConflictAbortsStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := mocks.NewMockSessionLocker(ctrl)
	gomock.InOrder(
		locker.EXPECT().Acquire(gomock.Any(), "p1", gomock.Any()).Return(nil),
		locker.EXPECT().Acquire(gomock.Any(), "p2", gomock.Any()).Return(appErr.ErrAlreadyInGame),
		locker.EXPECT().Release(gomock.Any(), "p1", gomock.Any()).Return(nil),
	)

	svc := newTestService(t, game.DefaultConfig(), nil, game.WithSessionLocker(locker))
	_, err := svc.Start(context.Background(), game.StartRequest{
		Kind:    "poker",
		Players: []game.PlayerSpec{human("p1"), bot("b1"), human("p2")},
		Stake:   100,
	})
	require.ErrorIs(t, err, appErr.ErrAlreadyInGame)
	assert.Zero(t, svc.ActiveSessions())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, game.AckAccepted, game.Classify(nil))
	assert.Equal(t, game.AckIllegal, game.Classify(game.ErrNotYourTurn))
	assert.Equal(t, game.AckError, game.Classify(errors.New("boom")))
}
