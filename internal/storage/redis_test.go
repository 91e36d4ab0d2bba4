package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"smartexpense/internal/core"
)

func TestRedisKeyPrefix(t *testing.T) {
	kv := NewRedisKV(RedisOptions{Addr: "localhost:0", Prefix: "smartexpense"})
	defer kv.Close()
	if got := kv.key(KeyExpenses); got != "smartexpense:expenses" {
		t.Fatalf("unexpected key %q", got)
	}

	bare := NewRedisKV(RedisOptions{Addr: "localhost:0"})
	defer bare.Close()
	if got := bare.key(KeyIncome); got != "income" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestRedisKVWrapsBackendErrors(t *testing.T) {
	kv := NewRedisKV(RedisOptions{Addr: "127.0.0.1:1"})
	defer kv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	v, ok, err := kv.Get(ctx, KeyBudget)
	if err == nil || ok || v != "" {
		t.Fatalf("expected a backend error, got %q ok=%v err=%v", v, ok, err)
	}
	if !strings.Contains(err.Error(), "redis get budget") {
		t.Fatalf("unwrapped get error: %v", err)
	}
	if err := kv.Set(ctx, KeyBudget, "100"); err == nil || !strings.Contains(err.Error(), "redis set budget") {
		t.Fatalf("unwrapped set error: %v", err)
	}
}

// liveRedis connects to REDIS_ADDR (default localhost:6379) under a unique
// prefix, skipping when no server answers.
func liveRedis(t *testing.T) *RedisKV {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	kv := NewRedisKV(RedisOptions{Addr: addr, Prefix: "smartexpense-test-" + uuid.NewString()})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := kv.Ping(ctx); err != nil {
		kv.Close()
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		kv.client.Del(context.Background(), kv.key(KeyExpenses), kv.key(KeyBudget), kv.key(KeyIncome))
		kv.Close()
	})
	return kv
}

func TestRedisKVGetSet(t *testing.T) {
	kv := liveRedis(t)
	ctx := context.Background()

	if v, ok, err := kv.Get(ctx, KeyIncome); err != nil || ok || v != "" {
		t.Fatalf("missing key should be absent, got %q ok=%v err=%v", v, ok, err)
	}
	if err := kv.Set(ctx, KeyIncome, "62.5"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, err := kv.Get(ctx, KeyIncome); err != nil || !ok || v != "62.5" {
		t.Fatalf("unexpected value %q ok=%v err=%v", v, ok, err)
	}
}

func TestRedisRepositoryRoundTrip(t *testing.T) {
	kv := liveRedis(t)
	ctx := context.Background()
	repo := NewRepository(kv, nil)

	want := State{
		Expenses: []core.Expense{{
			ID: "a1", Description: "Lunch", Amount: core.Money{Cents: 1250},
			Category: "Food", Date: core.Date("2024-05-17"),
		}},
		Budget: core.Money{Cents: 80000},
		Income: core.Money{Cents: 6250},
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Expenses) != 1 || got.Expenses[0] != want.Expenses[0] {
		t.Fatalf("expenses = %+v", got.Expenses)
	}
	if got.Budget != want.Budget || got.Income != want.Income {
		t.Fatalf("scalars = %v / %v", got.Budget, got.Income)
	}
}
