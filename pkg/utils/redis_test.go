package utils

import (
	"testing"
	"time"
)

func TestRedisConfigDefaults(t *testing.T) {
	c := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if c.DialTimeout != 3*time.Second {
		t.Fatalf("expected dial timeout default, got %s", c.DialTimeout)
	}
	if c.PoolSize != 20 {
		t.Fatalf("expected pool size default, got %d", c.PoolSize)
	}
	if c.PingTimeout != 2*time.Second {
		t.Fatalf("expected ping timeout default, got %s", c.PingTimeout)
	}
}
