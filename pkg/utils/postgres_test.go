package utils

import "testing"

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	if c.MaxOpenConns <= 0 || c.MaxIdleConns <= 0 {
		t.Fatalf("expected positive pool defaults, got %+v", c)
	}
	if c.PingTimeout <= 0 {
		t.Fatalf("expected ping timeout default")
	}
}

func TestPostgresPoolConfig_KeepsExplicitValues(t *testing.T) {
	c := PostgresPoolConfig{MaxOpenConns: 5}.withDefaults()
	if c.MaxOpenConns != 5 {
		t.Fatalf("expected explicit MaxOpenConns kept, got %d", c.MaxOpenConns)
	}
}
