package scene_test

import (
	"context"
	"errors"
	"testing"

	"cardroom-service/internal/model"
	"cardroom-service/internal/service/scene"
	appErr "cardroom-service/pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newSceneService(t *testing.T) (*gorm.DB, *scene.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Scene{}); err != nil {
		t.Fatalf("failed to migrate scene model: %v", err)
	}

	return db, scene.NewService(db)
}

func TestCreateScene(t *testing.T) {
	ctx := context.Background()
	_, svc := newSceneService(t)

	created, err := svc.CreateScene(ctx, scene.SceneMutationParams{
		Name:           "Low stakes",
		Kind:           "Poker",
		SeatCount:      6,
		Stake:          10,
		BotFillSeconds: 15,
		SeparateSubnet: true,
		RakeRuleID:     1,
	})
	if err != nil {
		t.Fatalf("create scene failed: %v", err)
	}
	if created.ID == 0 || created.Kind != "poker" || created.Multiplier != 1 || created.Status != scene.StatusEnabled {
		t.Fatalf("unexpected scene result: %+v", created)
	}
}

func TestCreateBlackjackSceneDefaultsToOneSeat(t *testing.T) {
	ctx := context.Background()
	_, svc := newSceneService(t)

	created, err := svc.CreateScene(ctx, scene.SceneMutationParams{Name: "21", Kind: "blackjack", Stake: 100, Multiplier: 1.5})
	if err != nil {
		t.Fatalf("create scene failed: %v", err)
	}
	if created.SeatCount != 1 || created.Multiplier != 1.5 {
		t.Fatalf("unexpected scene result: %+v", created)
	}
}

func TestCreateSceneValidation(t *testing.T) {
	ctx := context.Background()
	_, svc := newSceneService(t)

	cases := map[string]scene.SceneMutationParams{
		"missing name":       {Kind: "poker", SeatCount: 3, Stake: 10},
		"zero stake":         {Name: "x", Kind: "poker", SeatCount: 3},
		"unknown kind":       {Name: "x", Kind: "chexuan", SeatCount: 3, Stake: 10},
		"multi-seat 21":      {Name: "x", Kind: "blackjack", SeatCount: 2, Stake: 10},
		"one-seat poker":     {Name: "x", Kind: "poker", SeatCount: 1, Stake: 10},
		"too many seats":     {Name: "x", Kind: "poker", SeatCount: 10, Stake: 10},
		"bad status":         {Name: "x", Kind: "poker", SeatCount: 3, Stake: 10, Status: "open"},
		"negative bot delay": {Name: "x", Kind: "poker", SeatCount: 3, Stake: 10, BotFillSeconds: -1},
	}
	for name, params := range cases {
		if _, err := svc.CreateScene(ctx, params); !errors.Is(err, appErr.ErrInvalidScene) {
			t.Fatalf("%s: expected ErrInvalidScene, got %v", name, err)
		}
	}
}

func TestListScenesHidesDisabled(t *testing.T) {
	ctx := context.Background()
	db, svc := newSceneService(t)

	scenes := []model.Scene{
		{Name: "A", Kind: "poker", SeatCount: 6, Stake: 50, Status: "enabled"},
		{Name: "B", Kind: "poker", SeatCount: 6, Stake: 10, Status: "enabled"},
		{Name: "C", Kind: "poker", SeatCount: 6, Stake: 10, Status: "disabled"},
	}
	if err := db.WithContext(ctx).Create(&scenes).Error; err != nil {
		t.Fatalf("seed scenes failed: %v", err)
	}

	lobby, err := svc.ListScenes(ctx)
	if err != nil {
		t.Fatalf("list scenes failed: %v", err)
	}
	if len(lobby) != 2 || lobby[0].Name != "B" {
		t.Fatalf("unexpected lobby scenes: %+v", lobby)
	}

	result, err := svc.AdminListScenes(ctx, 1, 2)
	if err != nil {
		t.Fatalf("admin list scenes failed: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("expected total=3, got %d", result.Total)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected page size 2, got %d", len(result.Items))
	}

	if _, err := svc.Playable(ctx, scenes[2].ID); !errors.Is(err, appErr.ErrSceneDisabled) {
		t.Fatalf("expected ErrSceneDisabled, got %v", err)
	}
	if _, err := svc.Playable(ctx, 999); !errors.Is(err, appErr.ErrSceneNotFound) {
		t.Fatalf("expected ErrSceneNotFound, got %v", err)
	}
}

func TestUpdateSceneNotFound(t *testing.T) {
	ctx := context.Background()
	_, svc := newSceneService(t)

	_, err := svc.UpdateScene(ctx, 999, scene.SceneMutationParams{
		Name:      "missing",
		Kind:      "poker",
		SeatCount: 6,
		Stake:     10,
	})
	if err == nil || err != appErr.ErrSceneNotFound {
		t.Fatalf("expected ErrSceneNotFound, got %v", err)
	}
}
