package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"arena-service/internal/model"
	"arena-service/internal/service/cardgame"
	"arena-service/internal/service/ledger"
	appErr "arena-service/pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, feeBps int64) (*gorm.DB, *ledger.Service) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.MatchRecord{}); err != nil {
		t.Fatalf("failed to migrate match record model: %v", err)
	}
	return db, ledger.NewService(db, feeBps)
}

func sampleResult(matchID int64, pool int64) cardgame.Result {
	now := time.Now()
	return cardgame.Result{
		MatchID:   matchID,
		Winner:    cardgame.SideA,
		Health:    cardgame.PerSide{A: 40, B: 0},
		PrizePool: pool,
		PlayersA:  []string{"p1"},
		PlayersB:  []string{"p2", "p3"},
		Plays: []cardgame.PlayRecord{
			{Seq: 1, PlayerID: "p1", Side: cardgame.SideA, CardID: 3, Damage: 12, HealthAfter: 88, At: now},
		},
		StartedAt:   now.Add(-time.Minute),
		ConcludedAt: now,
	}
}

func TestSplit(t *testing.T) {
	_, svc := newTestService(t, 300)

	cases := []struct {
		pool, fee, payout int64
	}{
		{pool: 10000, fee: 300, payout: 9700},
		{pool: 67, fee: 2, payout: 65},
		{pool: 0, fee: 0, payout: 0},
	}
	for _, tc := range cases {
		fee, payout := svc.Split(tc.pool)
		if fee != tc.fee || payout != tc.payout {
			t.Fatalf("Split(%d) = %d/%d, want %d/%d", tc.pool, fee, payout, tc.fee, tc.payout)
		}
	}
}

func TestRecordStoresSplitAndPlayers(t *testing.T) {
	db, svc := newTestService(t, 300)
	ctx := context.Background()

	if err := svc.Record(ctx, sampleResult(3, 2000)); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	var stored model.MatchRecord
	if err := db.Where("match_id = ?", 3).First(&stored).Error; err != nil {
		t.Fatalf("failed to load record: %v", err)
	}
	if stored.Winner != "A" || stored.Fee != 60 || stored.Payout != 1940 || stored.Plays != 1 {
		t.Fatalf("unexpected record: %+v", stored)
	}
	var players struct {
		A []string `json:"a"`
		B []string `json:"b"`
	}
	if err := json.Unmarshal(stored.PlayersJSON, &players); err != nil {
		t.Fatalf("players json: %v", err)
	}
	if len(players.A) != 1 || len(players.B) != 2 {
		t.Fatalf("unexpected players: %+v", players)
	}
}

func TestRecordRejectsDuplicate(t *testing.T) {
	_, svc := newTestService(t, 300)
	ctx := context.Background()

	if err := svc.Record(ctx, sampleResult(1, 100)); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := svc.Record(ctx, sampleResult(1, 100)); !errors.Is(err, appErr.ErrMatchAlreadyRecorded) {
		t.Fatalf("expected ErrMatchAlreadyRecorded, got %v", err)
	}
}

func TestRecordRejectsIncompleteResult(t *testing.T) {
	_, svc := newTestService(t, 300)
	result := sampleResult(1, 100)
	result.Winner = cardgame.SideNone
	if err := svc.Record(context.Background(), result); err == nil {
		t.Fatalf("expected result without winner to be rejected")
	}
}

func TestRecordAcceptsDraw(t *testing.T) {
	db, svc := newTestService(t, 300)
	result := sampleResult(4, 1000)
	result.Winner = cardgame.SideDraw
	result.Health = cardgame.PerSide{A: 30, B: 30}
	if err := svc.Record(context.Background(), result); err != nil {
		t.Fatalf("record draw failed: %v", err)
	}

	var stored model.MatchRecord
	if err := db.Where("match_id = ?", 4).First(&stored).Error; err != nil {
		t.Fatalf("failed to load record: %v", err)
	}
	if stored.Winner != "draw" || stored.Fee != 30 || stored.Payout != 970 {
		t.Fatalf("unexpected draw record: %+v", stored)
	}
}

func TestListNewestFirst(t *testing.T) {
	_, svc := newTestService(t, 300)
	ctx := context.Background()

	for id := int64(1); id <= 5; id++ {
		if err := svc.Record(ctx, sampleResult(id, 100)); err != nil {
			t.Fatalf("record %d failed: %v", id, err)
		}
	}

	page, err := svc.List(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Total != 5 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Items[0].MatchID != 5 || page.Items[1].MatchID != 4 {
		t.Fatalf("expected newest first, got %d,%d", page.Items[0].MatchID, page.Items[1].MatchID)
	}

	last, err := svc.List(ctx, 3, 2)
	if err != nil || len(last.Items) != 1 || last.Items[0].MatchID != 1 {
		t.Fatalf("unexpected last page: %+v err=%v", last, err)
	}

	lastID, err := svc.LastMatchID(ctx)
	if err != nil || lastID != 5 {
		t.Fatalf("expected last match id 5, got %d err=%v", lastID, err)
	}
}

func TestGetUnknownMatch(t *testing.T) {
	_, svc := newTestService(t, 300)
	if _, err := svc.Get(context.Background(), 42); !errors.Is(err, appErr.ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
	lastID, err := svc.LastMatchID(context.Background())
	if err != nil || lastID != 0 {
		t.Fatalf("expected 0 for empty ledger, got %d err=%v", lastID, err)
	}
}

func TestRecorderHookFromCoordinator(t *testing.T) {
	db, svc := newTestService(t, 300)
	c := cardgame.NewCoordinator(cardgame.Options{
		Dealer:   cardgame.NewFixedDealer([]cardgame.CardID{3, 3, 3, 3, 3, 3, 3, 3, 3}, []cardgame.CardID{2, 2, 2, 2, 2, 2, 2, 2, 2}),
		Recorder: svc,
	})
	c.Join("p1", cardgame.SideA, 500)
	c.Join("p2", cardgame.SideB, 500)
	if _, err := c.Begin("p1"); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	for i := 0; i < 8; i++ {
		c.PlayCard("p1", 0)
		c.PlayCard("p2", 0)
	}
	if state, err := c.PlayCard("p1", 0); err != nil || state.Winner != cardgame.SideA {
		t.Fatalf("expected A to win, got %+v err=%v", state, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		var record model.MatchRecord
		err := db.Where("match_id = ?", 1).First(&record).Error
		if err == nil {
			if record.Fee != 30 || record.Payout != 970 || record.Plays != 17 {
				t.Fatalf("unexpected ledger row: %+v", record)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("ledger row not written: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
