package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/digibuy-next/internal/constants"

	"github.com/spf13/viper"
)

func TestLoadWithViperDefaults(t *testing.T) {
	cfg, err := LoadWithViper(viper.New(), t.TempDir())
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("server port want 8080 got %s", cfg.Server.Port)
	}
	if cfg.Checkout.SettleTimeoutSeconds != 15 {
		t.Fatalf("settle timeout want 15 got %d", cfg.Checkout.SettleTimeoutSeconds)
	}
	if cfg.Checkout.PointsAllocation != constants.PointsAllocationInsertion {
		t.Fatalf("points allocation want insertion got %s", cfg.Checkout.PointsAllocation)
	}
	if cfg.Notify.RabbitMQ.Queue != "process-email-jobs" {
		t.Fatalf("rabbitmq queue want process-email-jobs got %s", cfg.Notify.RabbitMQ.Queue)
	}
	if cfg.Queue.Queues["default"] != 10 {
		t.Fatalf("default queue weight want 10 got %d", cfg.Queue.Queues["default"])
	}
}

func TestLoadWithViperReadsFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: "9090"
checkout:
  settle_timeout_seconds: -1
  points_allocation: PRICE_DESC
  card_charge_limit: "500"
notify:
  driver: RabbitMQ
  rabbitmq:
    queue: ""
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	cfg, err := LoadWithViper(viper.New(), dir)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("server port want 9090 got %s", cfg.Server.Port)
	}
	if cfg.Checkout.SettleTimeoutSeconds != 15 {
		t.Fatalf("invalid timeout should fall back to 15, got %d", cfg.Checkout.SettleTimeoutSeconds)
	}
	if cfg.Checkout.PointsAllocation != constants.PointsAllocationPriceDesc {
		t.Fatalf("points allocation want price_desc got %s", cfg.Checkout.PointsAllocation)
	}
	if cfg.Checkout.CardChargeLimit != "500" {
		t.Fatalf("card charge limit want 500 got %s", cfg.Checkout.CardChargeLimit)
	}
	if cfg.Notify.Driver != constants.NotifyDriverRabbitMQ {
		t.Fatalf("notify driver want rabbitmq got %s", cfg.Notify.Driver)
	}
	if cfg.Notify.RabbitMQ.Queue != "process-email-jobs" {
		t.Fatalf("empty queue should fall back, got %s", cfg.Notify.RabbitMQ.Queue)
	}
}

func TestLoadWithViperEnvOverride(t *testing.T) {
	t.Setenv("DIGIBUY_CHECKOUT_LOCK_TTL_SECONDS", "45")
	cfg, err := LoadWithViper(viper.New(), t.TempDir())
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Checkout.LockTTLSeconds != 45 {
		t.Fatalf("lock ttl want 45 got %d", cfg.Checkout.LockTTLSeconds)
	}
}
