package rake_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cardroom-service/internal/model"
	"cardroom-service/internal/service/rake"
	appErr "cardroom-service/pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*gorm.DB, *rake.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.RakeRule{}); err != nil {
		t.Fatalf("failed to migrate rake rules: %v", err)
	}
	return db, rake.NewService(db)
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal json: %v", err)
	}
	return data
}

func TestCreateRakeRule(t *testing.T) {
	ctx := context.Background()
	_, svc := newService(t)

	payload := mustJSON(t, map[string]any{"ratio": 0.05, "cap": 1000})
	rule, err := svc.Create(ctx, rake.MutationParams{
		Type:       "Ratio",
		ConfigJSON: payload,
	})
	if err != nil {
		t.Fatalf("create rake rule failed: %v", err)
	}
	if rule.ID == 0 || rule.Type != "ratio" || rule.Status != "enabled" {
		t.Fatalf("unexpected rule: %+v", rule)
	}
}

func TestCreateRakeRuleRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	_, svc := newService(t)

	cases := []rake.MutationParams{
		{Type: "percent", ConfigJSON: mustJSON(t, map[string]any{"ratio": 0.05})},
		{Type: "ladder", ConfigJSON: mustJSON(t, map[string]any{"ratio": 0.05})},
		{Type: "fixed", ConfigJSON: []byte("{")},
		{Type: "fixed", Status: "paused", ConfigJSON: mustJSON(t, map[string]any{"amount": 5})},
	}
	for _, params := range cases {
		if _, err := svc.Create(ctx, params); !errors.Is(err, appErr.ErrInvalidRakeRule) {
			t.Fatalf("expected ErrInvalidRakeRule for %+v, got %v", params, err)
		}
	}
}

func TestListRakeRules(t *testing.T) {
	ctx := context.Background()
	db, svc := newService(t)

	rules := []model.RakeRule{
		{Type: "ratio", ConfigJSON: mustJSON(t, map[string]any{"ratio": 0.05})},
		{Type: "fixed", ConfigJSON: mustJSON(t, map[string]any{"amount": 100})},
	}
	if err := db.WithContext(ctx).Create(&rules).Error; err != nil {
		t.Fatalf("failed to seed rules: %v", err)
	}

	result, err := svc.List(ctx, 1, 1)
	if err != nil {
		t.Fatalf("list rake rules failed: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("expected total=2, got %d", result.Total)
	}
	if len(result.Items) != 1 || result.Items[0].Type != "fixed" {
		t.Fatalf("expected newest rule first, got %+v", result.Items)
	}
}

func TestUpdateRakeRule(t *testing.T) {
	ctx := context.Background()
	_, svc := newService(t)

	rule, err := svc.Create(ctx, rake.MutationParams{Type: "fixed", ConfigJSON: mustJSON(t, map[string]any{"amount": 5})})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := svc.Update(ctx, rule.ID, rake.MutationParams{
		Name:       " ladder ",
		Type:       "ladder",
		Status:     "disabled",
		ConfigJSON: mustJSON(t, []map[string]any{{"max": 100, "value": 2}}),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "ladder" || updated.Type != "ladder" || updated.Status != "disabled" {
		t.Fatalf("unexpected rule: %+v", updated)
	}
}

func TestUpdateRakeRuleNotFound(t *testing.T) {
	ctx := context.Background()
	_, svc := newService(t)

	_, err := svc.Update(ctx, 123, rake.MutationParams{
		Type:       "ratio",
		ConfigJSON: mustJSON(t, map[string]any{"ratio": 0.05}),
	})
	if err == nil || err != appErr.ErrRakeRuleNotFound {
		t.Fatalf("expected ErrRakeRuleNotFound, got %v", err)
	}
	if _, err := svc.Get(ctx, 123); err != appErr.ErrRakeRuleNotFound {
		t.Fatalf("expected ErrRakeRuleNotFound from Get, got %v", err)
	}
}
