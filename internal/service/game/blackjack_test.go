package game_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardroom-service/internal/service/game"
	"cardroom-service/internal/service/game/cards"
	appErr "cardroom-service/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBlackjack(t *testing.T, svc *game.Service, deck string, stake int64, multiplier float64) *game.Session {
	t.Helper()
	sess, err := svc.Start(context.Background(), game.StartRequest{
		Kind:       cards.KindBlackjack,
		Players:    []game.PlayerSpec{human("p1")},
		Stake:      stake,
		Multiplier: multiplier,
		Deck:       stackedDeck(deck),
	})
	require.NoError(t, err)
	return sess
}

func TestBlackjackNaturalSettlesOnDeal(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, game.DefaultConfig(), ledger)

	sess := startBlackjack(t, svc, "Tc As 9d 7h", 100, 1.5)

	require.True(t, sess.Finished())
	settles := ledger.Settles()
	require.Len(t, settles, 1)
	assert.Equal(t, sess.ID, settles[0].SessionID)
	assert.Equal(t, game.OutcomeWin, settles[0].Outcome)
	assert.EqualValues(t, 150, settles[0].Delta)
	assert.EqualValues(t, 100, settles[0].Stake)

	finishes := ledger.Finishes()
	require.Len(t, finishes, 1)
	require.NotNil(t, finishes[0].WinnerID)
	assert.Equal(t, "p1", *finishes[0].WinnerID)
	assert.EqualValues(t, 150, finishes[0].Results[0].Net)

	view := sess.View("p1")
	assert.Empty(t, view.TurnPlayer)
	assert.Empty(t, view.Choices)
	assert.Equal(t, game.PhaseEnded, view.Phase)
	assert.True(t, view.Finished)

	_, err := svc.HandleAction(context.Background(), sess.ID, "p1", "hit")
	assert.ErrorIs(t, err, game.ErrSessionFinished)
}

func TestBlackjackDealerNaturalWinsForHouse(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, game.DefaultConfig(), ledger)

	sess := startBlackjack(t, svc, "9c 7d As Kh", 100, 1)

	require.True(t, sess.Finished())
	settles := ledger.Settles()
	require.Len(t, settles, 1)
	assert.Equal(t, game.OutcomeLose, settles[0].Outcome)
	assert.EqualValues(t, -100, settles[0].Delta)

	finishes := ledger.Finishes()
	require.Len(t, finishes, 1)
	assert.Equal(t, "Dealer", finishes[0].WinnerName)
	assert.Nil(t, finishes[0].WinnerID)
}

func TestBlackjackBustJudgedAgainstCurrentDealer(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, game.DefaultConfig(), ledger)
	sess := startBlackjack(t, svc, "Tc 6d 9c 7s Kh 2c", 100, 1)

	_, err := svc.HandleAction(context.Background(), sess.ID, "p1", "hit")
	require.NoError(t, err)

	require.True(t, sess.Finished())
	settles := ledger.Settles()
	require.Len(t, settles, 1)
	assert.Equal(t, game.OutcomeLose, settles[0].Outcome)
	assert.EqualValues(t, -100, settles[0].Delta)
	// the dealer never drew to 17
	assert.Contains(t, sess.View("p1").PublicState, "Dealer: 9♣ 7♠ (16)")
}

func TestBlackjackAcesResolveLeftToRight(t *testing.T) {
	t.Run("late ace counts one", func(t *testing.T) {
		ledger := &recordingLedger{}
		svc := newTestService(t, game.DefaultConfig(), ledger)
		sess := startBlackjack(t, svc, "9h 5d Tc 7s As", 100, 1)

		view, err := svc.HandleAction(context.Background(), sess.ID, "p1", "hit")
		require.NoError(t, err)
		assert.False(t, view.Finished)
		assert.Equal(t, "p1", view.TurnPlayer)
		assert.Equal(t, []string{"9h", "5d", "As"}, view.MyCards)
		assert.Contains(t, view.PublicState, "(15)")

		_, err = svc.HandleAction(context.Background(), sess.ID, "p1", "stand")
		require.NoError(t, err)
		settles := ledger.Settles()
		require.Len(t, settles, 1)
		assert.Equal(t, game.OutcomeLose, settles[0].Outcome)
	})

	t.Run("early ace is never revalued", func(t *testing.T) {
		ledger := &recordingLedger{}
		svc := newTestService(t, game.DefaultConfig(), ledger)
		sess := startBlackjack(t, svc, "As 9d Tc 7s 5h", 100, 1)

		_, err := svc.HandleAction(context.Background(), sess.ID, "p1", "hit")
		require.NoError(t, err)
		require.True(t, sess.Finished())
		settles := ledger.Settles()
		require.Len(t, settles, 1)
		assert.Equal(t, game.OutcomeLose, settles[0].Outcome)
		assert.Contains(t, sess.View("p1").PublicState, "(25)")
	})
}

func TestBlackjackHitToTwentyOneSettlesAgainstCurrentDealer(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, game.DefaultConfig(), ledger)
	sess := startBlackjack(t, svc, "Tc 5d 9c 7s 6h 5h", 100, 1)

	view, err := svc.HandleAction(context.Background(), sess.ID, "p1", "hit")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tc", "5d", "6h"}, view.MyCards)

	require.True(t, sess.Finished())
	settles := ledger.Settles()
	require.Len(t, settles, 1)
	assert.Equal(t, game.OutcomeWin, settles[0].Outcome)
	assert.EqualValues(t, 100, settles[0].Delta)
	// 21 beats the dealer's 16 without a draw-out
	assert.Contains(t, sess.View("p1").PublicState, "Dealer: 9♣ 7♠ (16)")
}

func TestBlackjackDoubleDown(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, game.DefaultConfig(), ledger)
	sess := startBlackjack(t, svc, "5c 6d 9c 7s Th 2d", 100, 1)

	_, err := svc.HandleAction(context.Background(), sess.ID, "p1", "double")
	require.NoError(t, err)

	require.True(t, sess.Finished())
	settles := ledger.Settles()
	require.Len(t, settles, 1)
	assert.EqualValues(t, 200, settles[0].Stake)
	assert.EqualValues(t, 200, settles[0].Delta)
	assert.Equal(t, game.OutcomeWin, settles[0].Outcome)
}

func TestBlackjackDoubleNeedsTwoCards(t *testing.T) {
	svc := newTestService(t, game.DefaultConfig(), nil)
	sess := startBlackjack(t, svc, "2c 3d 9c 7s 4h 5h", 100, 1)

	_, err := svc.HandleAction(context.Background(), sess.ID, "p1", "hit")
	require.NoError(t, err)
	before := sess.View("p1")

	_, err = svc.HandleAction(context.Background(), sess.ID, "p1", "double")
	require.ErrorIs(t, err, game.ErrIllegalAction)
	assert.Equal(t, game.AckIllegal, game.Classify(err))
	after := sess.View("p1")
	assert.Equal(t, before.MyCards, after.MyCards)
	assert.Equal(t, before.PublicState, after.PublicState)
	assert.Equal(t, before.Logs, after.Logs)

	for _, c := range before.Choices {
		if c.ID == "double" {
			assert.True(t, c.Disabled)
		}
	}
}

func TestBlackjackSplitPlaysTwoHandsAgainstOneDealer(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, game.DefaultConfig(), ledger)
	sess := startBlackjack(t, svc, "8h 8d 9c 7s 3c 2d Ts 4h", 100, 1)

	assert.Contains(t, choiceIDs(sess.View("p1").Choices, true), "split")

	view, err := svc.HandleAction(context.Background(), sess.ID, "p1", "split")
	require.NoError(t, err)
	assert.Equal(t, []string{"8h", "3c", "8d", "2d"}, view.MyCards)
	ids := choiceIDs(view.Choices, true)
	assert.Subset(t, ids, []string{"hit:0", "stand:0", "double:0", "hit:1", "stand:1", "double:1"})
	assert.NotContains(t, ids, "split")

	_, err = svc.HandleAction(context.Background(), sess.ID, "p1", "split")
	require.ErrorIs(t, err, game.ErrIllegalAction)

	_, err = svc.HandleAction(context.Background(), sess.ID, "p1", "double:0")
	require.NoError(t, err)
	require.False(t, sess.Finished())

	_, err = svc.HandleAction(context.Background(), sess.ID, "p1", "stand:1")
	require.NoError(t, err)
	require.True(t, sess.Finished())

	settles := ledger.Settles()
	require.Len(t, settles, 2)
	assert.Equal(t, 0, settles[0].HandIndex)
	assert.EqualValues(t, 200, settles[0].Stake)
	assert.EqualValues(t, 200, settles[0].Delta)
	assert.Equal(t, 1, settles[1].HandIndex)
	assert.EqualValues(t, 100, settles[1].Stake)
	assert.EqualValues(t, -100, settles[1].Delta)

	finishes := ledger.Finishes()
	require.Len(t, finishes, 1)
	assert.EqualValues(t, 100, finishes[0].Results[0].Net)
	require.NotNil(t, finishes[0].WinnerID)
	assert.Equal(t, "p1", *finishes[0].WinnerID)
	// one draw-out shared by both hands
	assert.Contains(t, sess.View("p1").PublicState, "Dealer: 9♣ 7♠ 4♥ (20)")
}

func TestBlackjackSplitNeedsEqualValues(t *testing.T) {
	svc := newTestService(t, game.DefaultConfig(), nil)
	sess := startBlackjack(t, svc, "8h 9d 9c 7s", 100, 1)

	_, err := svc.HandleAction(context.Background(), sess.ID, "p1", "split")
	require.ErrorIs(t, err, game.ErrIllegalAction)
	assert.Len(t, sess.View("p1").MyCards, 2)
}

func TestBlackjackDeckExhaustedLeavesHandOpen(t *testing.T) {
	svc := newTestService(t, game.DefaultConfig(), nil)
	sess := startBlackjack(t, svc, "Tc 5d 9c 7s", 100, 1)

	_, err := svc.HandleAction(context.Background(), sess.ID, "p1", "hit")
	require.ErrorIs(t, err, cards.ErrDeckExhausted)
	assert.False(t, sess.Finished())
	assert.Equal(t, game.AckError, game.Classify(err))
}

func TestBlackjackFailedDealerDrawLeavesSessionUnchanged(t *testing.T) {
	cases := []struct {
		name    string
		deck    string
		setup   []string
		action  string
		recover string
		outcome game.Outcome
		stake   int64
	}{
		{name: "stand", deck: "Tc 5d 9c 7s", action: "stand"},
		{name: "double", deck: "5c 6d 9c 7s Th", action: "double", recover: "stand", outcome: game.OutcomeWin, stake: 100},
		{name: "split hand", deck: "8h 8d 9c 7s 3c 2d Ts", setup: []string{"split", "hit:0"}, action: "stand:1", recover: "hit:1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := &recordingLedger{}
			svc := newTestService(t, game.DefaultConfig(), ledger)
			sess := startBlackjack(t, svc, tc.deck, 100, 1)
			for _, action := range tc.setup {
				_, err := svc.HandleAction(context.Background(), sess.ID, "p1", action)
				require.NoError(t, err, action)
			}
			settled := len(ledger.Settles())
			before := sess.View("p1")

			_, err := svc.HandleAction(context.Background(), sess.ID, "p1", tc.action)
			require.ErrorIs(t, err, cards.ErrDeckExhausted)

			after := sess.View("p1")
			assert.False(t, after.Finished)
			assert.Equal(t, before.MyCards, after.MyCards)
			assert.Equal(t, before.PublicState, after.PublicState)
			assert.Equal(t, before.Logs, after.Logs)
			assert.Equal(t, choiceIDs(before.Choices, true), choiceIDs(after.Choices, true))
			assert.Len(t, ledger.Settles(), settled)

			if tc.outcome == "" {
				return
			}
			_, err = svc.HandleAction(context.Background(), sess.ID, "p1", tc.recover)
			require.NoError(t, err)
			settles := ledger.Settles()
			require.Len(t, settles, 1)
			assert.Equal(t, tc.outcome, settles[0].Outcome)
			assert.Equal(t, tc.stake, settles[0].Stake)
		})
	}
}

func TestBlackjackBotPlaysItself(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, game.DefaultConfig(), ledger)

	sess, err := svc.Start(context.Background(), game.StartRequest{
		Kind:    cards.KindBlackjack,
		Players: []game.PlayerSpec{bot("b1")},
		Stake:   50,
		Deck:    stackedDeck("Tc 5d 9c 7s 2h 3h"),
	})
	require.NoError(t, err)

	require.True(t, sess.Finished())
	settles := ledger.Settles()
	require.Len(t, settles, 1)
	assert.Equal(t, game.OutcomeLose, settles[0].Outcome)
	assert.EqualValues(t, -50, settles[0].Delta)
}

func TestBlackjackHandTimeout(t *testing.T) {
	cases := []struct {
		name     string
		policy   game.AbandonPolicy
		settles  int
		outcome  game.Outcome
		delta    int64
		finishes int
	}{
		{name: "none", policy: game.AbandonNone},
		{name: "refund", policy: game.AbandonRefund, settles: 1, outcome: game.OutcomeRefund, delta: 0, finishes: 1},
		{name: "forfeit", policy: game.AbandonForfeit, settles: 1, outcome: game.OutcomeForfeit, delta: -100, finishes: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := game.DefaultConfig()
			cfg.HandTimeout = 20 * time.Millisecond
			cfg.AbandonPolicy = tc.policy
			ledger := &recordingLedger{}
			svc := newTestService(t, cfg, ledger)
			sess := startBlackjack(t, svc, "Tc 5d 9c 7s 2h 3h", 100, 1)

			require.Eventually(t, sess.Finished, time.Second, 5*time.Millisecond)

			settles := ledger.Settles()
			require.Len(t, settles, tc.settles)
			if tc.settles > 0 {
				assert.Equal(t, tc.outcome, settles[0].Outcome)
				assert.Equal(t, tc.delta, settles[0].Delta)
			}
			assert.Len(t, ledger.Finishes(), tc.finishes)
			assert.Equal(t, game.PhaseEnded, sess.View("p1").Phase)
		})
	}
}

func TestBlackjackSplitHandTimesOutAfterOtherSettles(t *testing.T) {
	cases := []struct {
		name    string
		policy  game.AbandonPolicy
		settles int
		net     int64
	}{
		{name: "none", policy: game.AbandonNone, settles: 1, net: -100},
		{name: "refund", policy: game.AbandonRefund, settles: 2, net: -100},
		{name: "forfeit", policy: game.AbandonForfeit, settles: 2, net: -200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := game.DefaultConfig()
			cfg.HandTimeout = 100 * time.Millisecond
			cfg.ReclaimAfter = 10 * time.Millisecond
			cfg.AbandonPolicy = tc.policy
			ledger := &recordingLedger{}
			svc := newTestService(t, cfg, ledger)
			sess := startBlackjack(t, svc, "8h 8d 9c 7s 3c 2d 4h", 100, 1)

			_, err := svc.HandleAction(context.Background(), sess.ID, "p1", "split")
			require.NoError(t, err)
			_, err = svc.HandleAction(context.Background(), sess.ID, "p1", "stand:1")
			require.NoError(t, err)
			require.False(t, sess.Finished(), "hand 0 is still open")

			require.Eventually(t, func() bool { return svc.ActiveSessions() == 0 }, 2*time.Second, 5*time.Millisecond)

			settles := ledger.Settles()
			require.Len(t, settles, tc.settles)
			assert.Equal(t, 1, settles[0].HandIndex)
			assert.Equal(t, game.OutcomeLose, settles[0].Outcome)
			assert.EqualValues(t, -100, settles[0].Delta)

			finishes := ledger.Finishes()
			require.Len(t, finishes, 1)
			require.Len(t, finishes[0].Results, 1)
			assert.Equal(t, tc.net, finishes[0].Results[0].Net)
			assert.Equal(t, "Dealer", finishes[0].WinnerName)

			_, err = svc.GetSession(sess.ID)
			assert.ErrorIs(t, err, appErr.ErrSessionNotFound)
		})
	}
}

func TestFinishedSessionIsReclaimed(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.ReclaimAfter = 10 * time.Millisecond
	svc := newTestService(t, cfg, nil)
	sess := startBlackjack(t, svc, "Tc As 9d 7h", 100, 1)

	require.Eventually(t, func() bool {
		_, err := svc.GetSession(sess.ID)
		return errors.Is(err, appErr.ErrSessionNotFound)
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, svc.ActiveSessions())
}

func TestStartValidation(t *testing.T) {
	svc := newTestService(t, game.DefaultConfig(), nil)
	ctx := context.Background()

	_, err := svc.Start(ctx, game.StartRequest{Kind: cards.KindBlackjack, Players: []game.PlayerSpec{human("p1")}})
	assert.ErrorIs(t, err, appErr.ErrInvalidStake)

	_, err = svc.Start(ctx, game.StartRequest{Kind: "baccarat", Players: []game.PlayerSpec{human("p1")}, Stake: 10})
	assert.ErrorIs(t, err, appErr.ErrUnsupportedGame)

	_, err = svc.Start(ctx, game.StartRequest{Kind: cards.KindBlackjack, Players: []game.PlayerSpec{human("p1"), human("p2")}, Stake: 10})
	assert.Error(t, err)

	_, err = svc.Start(ctx, game.StartRequest{Kind: cards.KindPoker, Players: []game.PlayerSpec{human("p1"), human("p1")}, Stake: 10})
	assert.Error(t, err)

	assert.Zero(t, svc.ActiveSessions())
}

func TestViewAndDispatchRequireSeat(t *testing.T) {
	svc := newTestService(t, game.DefaultConfig(), nil)
	sess := startBlackjack(t, svc, "Tc 5d 9c 7s 2h", 100, 1)

	_, err := svc.View(sess.ID, "stranger")
	assert.ErrorIs(t, err, appErr.ErrSessionAccessDenied)

	_, err = svc.HandleAction(context.Background(), sess.ID, "stranger", "hit")
	assert.ErrorIs(t, err, game.ErrNotSeated)
	assert.ErrorIs(t, err, game.ErrIllegalAction)

	_, err = svc.HandleAction(context.Background(), "missing", "p1", "hit")
	assert.ErrorIs(t, err, appErr.ErrSessionNotFound)

	_, err = svc.HandleAction(context.Background(), sess.ID, "p1", "surrender")
	assert.ErrorIs(t, err, game.ErrIllegalAction)
}

func TestSubscribersReceiveStateUpdates(t *testing.T) {
	svc := newTestService(t, game.DefaultConfig(), nil)
	sess := startBlackjack(t, svc, "Tc 5d 9c 7s 2h 3h", 100, 1)

	ch := sess.Subscribe("p1")
	first := <-ch
	assert.Equal(t, "state", first.Type)

	_, err := svc.HandleAction(context.Background(), sess.ID, "p1", "hit")
	require.NoError(t, err)

	select {
	case msg := <-ch:
		state, ok := msg.Data.(game.TableState)
		require.True(t, ok)
		assert.Greater(t, msg.Seq, first.Seq)
		assert.Equal(t, []string{"Tc", "5d", "2h"}, state.MyCards)
	case <-time.After(time.Second):
		t.Fatalf("no state pushed after action")
	}

	sess.Unsubscribe("p1", ch)
	_, open := <-ch
	assert.False(t, open)
}
