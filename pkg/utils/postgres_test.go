package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfigDefaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	if c.MaxOpenConns != 25 || c.MaxIdleConns != 25 {
		t.Fatalf("expected conservative pool defaults, got %+v", c)
	}
	if c.PingTimeout != 5*time.Second {
		t.Fatalf("expected ping timeout default, got %s", c.PingTimeout)
	}
}

func TestPostgresPoolConfigKeepsExplicitValues(t *testing.T) {
	c := PostgresPoolConfig{MaxOpenConns: 5, ConnMaxLifetime: time.Minute}.withDefaults()
	if c.MaxOpenConns != 5 {
		t.Fatalf("expected explicit MaxOpenConns kept, got %d", c.MaxOpenConns)
	}
	if c.ConnMaxLifetime != time.Minute {
		t.Fatalf("expected explicit lifetime kept, got %s", c.ConnMaxLifetime)
	}
}
