package game_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cardroom-service/internal/service/game"
	"cardroom-service/internal/service/game/cards"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPoker(t *testing.T, svc *game.Service, deck string, buyIn int64, players ...game.PlayerSpec) *game.Session {
	t.Helper()
	req := game.StartRequest{
		Kind:    cards.KindPoker,
		Players: players,
		Stake:   buyIn,
	}
	if deck != "" {
		req.Deck = stackedDeck(deck)
	}
	sess, err := svc.Start(context.Background(), req)
	require.NoError(t, err)
	return sess
}

func act(t *testing.T, svc *game.Service, sess *game.Session, playerID, actionID string) game.TableState {
	t.Helper()
	view, err := svc.HandleAction(context.Background(), sess.ID, playerID, actionID)
	require.NoError(t, err, "%s %s", playerID, actionID)
	return view
}

func TestPokerCheckFacingBetIsRejected(t *testing.T) {
	svc := newTestService(t, game.DefaultConfig(), nil)
	sess := startPoker(t, svc, "2c 3c 4c 5d 6d 7d 9h Th Js Kd Ac", 1000, human("p1"), human("p2"), human("p3"))

	view := sess.View("p1")
	assert.Equal(t, "preflop", view.Phase)
	assert.Equal(t, "p1", view.TurnPlayer)
	assert.Contains(t, view.PublicState, "pot 30")

	act(t, svc, sess, "p1", "raise_20")
	act(t, svc, sess, "p2", "call")

	before := sess.View("p3")
	assert.Equal(t, "p3", before.TurnPlayer)

	_, err := svc.HandleAction(context.Background(), sess.ID, "p3", "check")
	require.ErrorIs(t, err, game.ErrIllegalAction)
	assert.Contains(t, err.Error(), "must call 20")

	after := sess.View("p3")
	assert.Equal(t, before.PublicState, after.PublicState)
	assert.Equal(t, before.TurnPlayer, after.TurnPlayer)
	assert.Equal(t, before.Logs, after.Logs)
	assert.Contains(t, after.PublicState, "pot 70")

	view = act(t, svc, sess, "p3", "call")
	assert.Equal(t, "flop", view.Phase)
	assert.Equal(t, "p1", view.TurnPlayer)
	assert.Contains(t, view.PublicState, "pot 90")
	assert.Contains(t, view.PublicState, "Board: 9♥ 10♥ J♠")

	_, err = svc.HandleAction(context.Background(), sess.ID, "p2", "check")
	assert.ErrorIs(t, err, game.ErrNotYourTurn)
}

func TestPokerChoices(t *testing.T) {
	svc := newTestService(t, game.DefaultConfig(), nil)
	sess := startPoker(t, svc, "", 1000, human("p1"), human("p2"))

	onTurn := sess.View("p1").Choices
	assert.Equal(t, []string{"fold", "check", "raise_20", "raise_10", "raise_990"}, choiceIDs(onTurn, true))
	assert.Contains(t, choiceIDs(onTurn, false), "call")

	for _, c := range sess.View("p2").Choices {
		assert.True(t, c.Disabled, c.ID)
	}
}

func TestPokerIllegalBets(t *testing.T) {
	svc := newTestService(t, game.DefaultConfig(), nil)
	sess := startPoker(t, svc, "", 100, human("p1"), human("p2"))

	for _, action := range []string{"call", "raise_0", "raise_abc", "raise_1000", "bet"} {
		_, err := svc.HandleAction(context.Background(), sess.ID, "p1", action)
		assert.ErrorIs(t, err, game.ErrIllegalAction, action)
	}
	assert.Equal(t, "p1", sess.View("p1").TurnPlayer)
}

func TestPokerHugeRaiseFacingBetIsRejected(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, game.DefaultConfig(), ledger)
	sess := startPoker(t, svc, "", 1000, human("p1"), human("p2"))

	act(t, svc, sess, "p1", "raise_20")
	before := sess.View("p2")
	assert.Contains(t, before.PublicState, "pot 40")

	for _, action := range []string{"raise_9223372036854775807", "raise_9223372036854775790", "raise_991"} {
		_, err := svc.HandleAction(context.Background(), sess.ID, "p2", action)
		require.ErrorIs(t, err, game.ErrIllegalAction, action)
	}

	after := sess.View("p2")
	assert.Equal(t, before.PublicState, after.PublicState)
	assert.Equal(t, before.Logs, after.Logs)
	assert.Equal(t, "p2", after.TurnPlayer)
	assert.Contains(t, after.PublicState, "pot 40")
	assert.Contains(t, after.PublicState, "p2: 990 chips")

	act(t, svc, sess, "p2", "fold")
	finishes := ledger.Finishes()
	require.Len(t, finishes, 1)
	assert.EqualValues(t, 30, finishes[0].Results[0].Net)
	assert.EqualValues(t, -30, finishes[0].Results[1].Net)
	assert.Zero(t, netSum(finishes[0].Results))
}

func TestPokerShowdown(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, game.DefaultConfig(), ledger)
	sess := startPoker(t, svc, "As Kc Ad Kd 2h 7c 9s Jd 3c", 1000, human("p1"), human("p2"))

	for _, street := range []string{"preflop", "flop", "turn", "river"} {
		require.Equal(t, street, sess.View("p1").Phase)
		act(t, svc, sess, "p1", "check")
		act(t, svc, sess, "p2", "check")
	}

	require.True(t, sess.Finished())
	assert.Empty(t, ledger.Settles())
	finishes := ledger.Finishes()
	require.Len(t, finishes, 1)
	res := finishes[0]
	require.NotNil(t, res.WinnerID)
	assert.Equal(t, "p1", *res.WinnerID)
	require.Len(t, res.Results, 2)
	assert.EqualValues(t, 10, res.Results[0].Net)
	assert.EqualValues(t, -10, res.Results[1].Net)
	assert.Equal(t, "one-pair", res.Results[0].Hand)
	assert.Zero(t, netSum(res.Results))
}

func TestPokerFoldAwardsPotUncontested(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, game.DefaultConfig(), ledger)
	sess := startPoker(t, svc, "", 500, human("p1"), human("p2"))

	act(t, svc, sess, "p1", "fold")

	require.True(t, sess.Finished())
	finishes := ledger.Finishes()
	require.Len(t, finishes, 1)
	require.NotNil(t, finishes[0].WinnerID)
	assert.Equal(t, "p2", *finishes[0].WinnerID)
	assert.EqualValues(t, -10, finishes[0].Results[0].Net)
	assert.EqualValues(t, 10, finishes[0].Results[1].Net)
}

func TestPokerSplitPot(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, game.DefaultConfig(), ledger)
	sess := startPoker(t, svc, "2c 3d 4h 5s Ts Js Qs Ks As", 1000, human("p1"), human("p2"))

	for i := 0; i < 4; i++ {
		act(t, svc, sess, "p1", "check")
		act(t, svc, sess, "p2", "check")
	}

	finishes := ledger.Finishes()
	require.Len(t, finishes, 1)
	for _, r := range finishes[0].Results {
		assert.Zero(t, r.Net)
		assert.Equal(t, "royal-flush", r.Hand)
	}
}

func TestPokerAllInRunsOutTheBoard(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, game.DefaultConfig(), ledger)
	sess := startPoker(t, svc, "As Kc Ad Kd 2h 7c 9s Jd 3c", 100, human("p1"), human("p2"))

	act(t, svc, sess, "p1", "raise_90")
	act(t, svc, sess, "p2", "call")

	require.True(t, sess.Finished())
	assert.Contains(t, sess.View("p1").PublicState, "Board: 2♥ 7♣ 9♠ J♦ 3♣")
	finishes := ledger.Finishes()
	require.Len(t, finishes, 1)
	assert.EqualValues(t, 100, finishes[0].Results[0].Net)
	assert.EqualValues(t, -100, finishes[0].Results[1].Net)
}

func TestPokerTurnTimeoutFolds(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.PokerTurnTimeout = 20 * time.Millisecond
	ledger := &recordingLedger{}
	svc := newTestService(t, cfg, ledger)
	sess := startPoker(t, svc, "", 500, human("p1"), human("p2"))

	require.Eventually(t, sess.Finished, time.Second, 5*time.Millisecond)
	finishes := ledger.Finishes()
	require.Len(t, finishes, 1)
	require.NotNil(t, finishes[0].WinnerID)
	assert.Equal(t, "p2", *finishes[0].WinnerID)
}

func TestPokerTableWithBotsConservesChips(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			ledger := &recordingLedger{}
			svc := newTestService(t, game.DefaultConfig(), ledger)
			sess, err := svc.Start(context.Background(), game.StartRequest{
				Kind:    cards.KindPoker,
				Players: []game.PlayerSpec{bot("b1"), human("p1"), bot("b2"), bot("b3")},
				Stake:   1000,
				Seed:    seed,
			})
			require.NoError(t, err)

			for step := 0; step < 100 && !sess.Finished(); step++ {
				view := sess.View("p1")
				require.Equal(t, "p1", view.TurnPlayer, "bots must hand the turn back")
				enabled := choiceIDs(view.Choices, true)
				action := "fold"
				for _, want := range []string{"check", "call"} {
					if contains(enabled, want) {
						action = want
						break
					}
				}
				act(t, svc, sess, "p1", action)
			}

			require.True(t, sess.Finished())
			finishes := ledger.Finishes()
			require.Len(t, finishes, 1)
			assert.Zero(t, netSum(finishes[0].Results))
			for _, r := range finishes[0].Results {
				assert.GreaterOrEqual(t, r.Net, int64(-1000))
			}
		})
	}
}

func contains(ids []string, want string) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
