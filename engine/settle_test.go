package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/bellapacxx/bingo-engine/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// settleFixture: three real-funded players in an active round with the
// ordered sequence called up to 5, so a card with top row 1..5 has bingo.
type settleFixture struct {
	eng     *Engine
	round   *models.Round
	players []*models.User
}

func newSettleFixture(t *testing.T) settleFixture {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	round := seedRound(t, db, 1000, models.RoundWaitingForPlayers)

	var players []*models.User
	for i := 0; i < 3; i++ {
		u := seedUser(t, db, int64(200+i), 5000, 0)
		joinRound(t, db, round.ID, u.ID, cardWithTopRow([5]int{1, 2, 3, 4, 5}))
		require.NoError(t, eng.Stake(ctx, u.ID, round.ID, models.SourceReal, 1000))
		players = append(players, u)
	}

	activateWithSequence(t, db, round.ID, orderedSequence(), 5)
	return settleFixture{eng: eng, round: round, players: players}
}

func TestSettleSingleWinner(t *testing.T) {
	f := newSettleFixture(t)
	db := f.eng.DB()
	ctx := context.Background()
	winner := f.players[1]

	res, err := f.eng.Settle(ctx, f.round.ID, winner.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeWinner, res.Outcome)
	assert.Equal(t, int64(3000), res.GrossPrize)
	assert.Equal(t, int64(300), res.Commission)
	assert.Equal(t, int64(2700), res.NetPrize)

	got := reloadRound(t, db, f.round.ID)
	assert.Equal(t, models.RoundFinished, got.Status)
	assert.Equal(t, models.EndReasonWon, got.EndReason)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, winner.ID, *got.WinnerID)

	// real-funded stake routes to the withdrawable pool
	wallet := reloadWallet(t, db, winner.ID)
	assert.Equal(t, int64(4000+2700), wallet.RealBalance)
	assert.Equal(t, int64(0), wallet.LockedBonusWinnings)

	// losers' wallets are untouched at settlement
	assert.Equal(t, int64(4000), reloadWallet(t, db, f.players[0].ID).RealBalance)
}

func TestSettleLateClaimIsNotAnError(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	res, err := f.eng.Settle(ctx, f.round.ID, f.players[1].ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeWinner, res.Outcome)

	// player 0 also has a valid pattern but arrives second
	late, err := f.eng.Settle(ctx, f.round.ID, f.players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLateButValid, late.Outcome)

	// no second credit
	db := f.eng.DB()
	assert.Equal(t, int64(4000), reloadWallet(t, db, f.players[0].ID).RealBalance)
	got := reloadRound(t, db, f.round.ID)
	assert.Equal(t, f.players[1].ID, *got.WinnerID)
}

func TestSettleInvalidPattern(t *testing.T) {
	f := newSettleFixture(t)
	db := f.eng.DB()
	ctx := context.Background()

	// a participant whose card does not match the called prefix
	loser := seedUser(t, db, 250, 5000, 0)
	joinRound(t, db, f.round.ID, loser.ID, cardWithTopRow([5]int{6, 7, 8, 9, 10}))
	require.NoError(t, f.eng.Stake(ctx, loser.ID, f.round.ID, models.SourceReal, 1000))

	res, err := f.eng.Settle(ctx, f.round.ID, loser.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Nil(t, reloadRound(t, db, f.round.ID).WinnerID)
}

func TestSettleRoutesBonusWinningsToLockedPool(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	round := seedRound(t, db, 1000, models.RoundWaitingForPlayers)

	real := seedUser(t, db, 300, 5000, 0)
	joinRound(t, db, round.ID, real.ID, cardWithTopRow([5]int{6, 7, 8, 9, 10}))
	require.NoError(t, eng.Stake(ctx, real.ID, round.ID, models.SourceReal, 1000))

	bonus := seedUser(t, db, 301, 0, 5000)
	joinRound(t, db, round.ID, bonus.ID, cardWithTopRow([5]int{1, 2, 3, 4, 5}))
	require.NoError(t, eng.Stake(ctx, bonus.ID, round.ID, models.SourceBonus, 1000))

	activateWithSequence(t, db, round.ID, orderedSequence(), 5)

	res, err := eng.Settle(ctx, round.ID, bonus.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeWinner, res.Outcome)
	assert.Equal(t, int64(1800), res.NetPrize)

	wallet := reloadWallet(t, db, bonus.ID)
	assert.Equal(t, int64(1800), wallet.LockedBonusWinnings)
	assert.Equal(t, int64(0), wallet.RealBalance, "bonus winnings must never reach the real pool")
}

// The gross prize must be the pool as serialized by the winner write, not
// the claimant's earlier snapshot: a stake committing between the two still
// gets paid out.
func TestSettlePaysPoolReadAtWinnerWrite(t *testing.T) {
	f := newSettleFixture(t)
	db := f.eng.DB()
	ctx := context.Background()
	winner := f.players[0]

	// a fourth stake lands after the claimant's snapshot was taken
	require.NoError(t, db.Model(&models.Round{}).Where("id = ?", f.round.ID).
		Update("prize_pool", gorm.Expr("prize_pool + ?", 1000)).Error)

	res, err := f.eng.awardWinner(ctx, f.round.ID, winner.ID, models.SourceReal)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), res.GrossPrize)
	assert.Equal(t, int64(400), res.Commission)
	assert.Equal(t, int64(3600), res.NetPrize)
	assert.Equal(t, int64(4000+3600), reloadWallet(t, db, winner.ID).RealBalance)
}

func TestSettleConcurrentClaimsConvergeToOneWinner(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	outcomes := make([]ClaimOutcome, len(f.players))
	var wg sync.WaitGroup
	for i, p := range f.players {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			res, err := f.eng.Settle(ctx, f.round.ID, id)
			if err != nil {
				t.Error(err)
				return
			}
			outcomes[i] = res.Outcome
		}(i, p.ID)
	}
	wg.Wait()

	winners, late := 0, 0
	for _, o := range outcomes {
		switch o {
		case OutcomeWinner:
			winners++
		case OutcomeLateButValid:
			late++
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, len(f.players)-1, late)
}

func TestSettleRejectedOnUnstartedOrCancelledRound(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	user := seedUser(t, db, 310, 5000, 0)

	for _, status := range []models.RoundStatus{models.RoundWaiting, models.RoundCountdown, models.RoundCancelled} {
		round := seedRound(t, db, 1000, status)
		joinRound(t, db, round.ID, user.ID, cardWithTopRow([5]int{1, 2, 3, 4, 5}))
		_, err := eng.Settle(ctx, round.ID, user.ID)
		assert.ErrorIs(t, err, ErrRoundNotJoinable, "status %s", status)
	}
}

func TestSplitPrizeConservation(t *testing.T) {
	rates := []string{"0", "0.05", "0.10", "0.125", "0.3333", "1"}
	grosses := []int64{0, 1, 3, 10, 999, 3000, 4000, 123457, 1<<40 + 7}

	for _, rs := range rates {
		rate := decimal.RequireFromString(rs)
		for _, gross := range grosses {
			commission, net := splitPrize(gross, rate)
			assert.Equal(t, gross, commission+net, "rate=%s gross=%d", rs, gross)
			assert.GreaterOrEqual(t, net, int64(0))
			assert.GreaterOrEqual(t, commission, int64(0))
		}
	}
}

// End-to-end: join and stake, countdown into activation, five calls, a
// winning claim and a late claim.
func TestRoundLifecycleEndToEnd(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()

	round := seedRound(t, db, 1000, models.RoundWaitingForPlayers)
	var players []*models.User
	for i := 0; i < 3; i++ {
		u := seedUser(t, db, int64(400+i), 5000, 0)
		joinRound(t, db, round.ID, u.ID, nil)
		require.NoError(t, eng.Stake(ctx, u.ID, round.ID, models.SourceReal, 1000))
		players = append(players, u)
	}
	// bonus-funded filler participates through the same paths
	filler := seedUser(t, db, 499, 0, 5000)
	joinRound(t, db, round.ID, filler.ID, nil)
	require.NoError(t, eng.Stake(ctx, filler.ID, round.ID, models.SourceBonus, 1000))

	assert.Equal(t, int64(4000), reloadRound(t, db, round.ID).PrizePool)

	require.NoError(t, db.Model(&models.Round{}).Where("id = ?", round.ID).
		Updates(map[string]interface{}{
			"status":              models.RoundCountdown,
			"countdown_remaining": 1,
		}).Error)

	action, err := eng.Tick(ctx, round.ID)
	require.NoError(t, err)
	require.Equal(t, ActionActivated, action.Type)

	var called []int
	for i := 1; i <= 5; i++ {
		action, err = eng.Tick(ctx, round.ID)
		require.NoError(t, err)
		require.Equal(t, ActionNumberCalled, action.Type)
		assert.Equal(t, i, action.Total)
		called = append(called, action.Number)
	}

	// give players cards built from the actual called prefix
	assignCard := func(u *models.User) {
		joinCard := cardWithTopRow([5]int{called[0], called[1], called[2], called[3], called[4]})
		raw := mustJSON(t, joinCard)
		require.NoError(t, db.Create(&models.Card{RoundID: round.ID, UserID: u.ID, Numbers: raw}).Error)
	}
	assignCard(players[0])
	assignCard(players[1])

	res, err := eng.Settle(ctx, round.ID, players[1].ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeWinner, res.Outcome)
	assert.Equal(t, int64(3600), res.NetPrize) // 4000 * 0.9
	assert.Equal(t, int64(4000+3600), reloadWallet(t, db, players[1].ID).RealBalance)

	late, err := eng.Settle(ctx, round.ID, players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLateButValid, late.Outcome)
}
