package cache

import (
	"context"
	"testing"
	"time"

	"github.com/digibuy-next/internal/config"
)

func TestSettlementLockerDisabledIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init redis failed: %v", err)
	}
	locker := NewSettlementLocker()
	unlock, ok, err := locker.TryLock(context.Background(), SettlementLockKey(9), time.Second)
	if err != nil {
		t.Fatalf("noop lock should not fail: %v", err)
	}
	if !ok {
		t.Fatalf("noop lock should always be acquired")
	}
	unlock()

	var nilLocker *SettlementLocker
	if _, ok, _ := nilLocker.TryLock(context.Background(), "k", time.Second); !ok {
		t.Fatalf("nil locker should always be acquired")
	}
}

func TestSettlementLockKeyAndPrefix(t *testing.T) {
	if got := SettlementLockKey(42); got != "lock:settle:order:42" {
		t.Fatalf("lock key mismatch: %s", got)
	}
	redisPrefix = "digibuy"
	if got := BuildKey(" rate:checkout:1 "); got != "digibuy:rate:checkout:1" {
		t.Fatalf("prefixed key mismatch: %s", got)
	}
	if got := BuildKey(""); got != "digibuy" {
		t.Fatalf("empty key should return prefix, got %s", got)
	}
}
