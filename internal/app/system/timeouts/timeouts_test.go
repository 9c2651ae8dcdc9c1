package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestConfigureIgnoresZero(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 3 * time.Second})
	got := Current()
	if got.Short != 3*time.Second {
		t.Errorf("Short: got %v, want 3s", got.Short)
	}
	if got.Ping != DefaultPing || got.Long != DefaultLong {
		t.Errorf("unexpected change to other timeouts: %+v", got)
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Ping: time.Second, Short: time.Second, Long: time.Second})
	Reset()
	if Current() != (Config{Ping: DefaultPing, Short: DefaultShort, Long: DefaultLong}) {
		t.Errorf("Reset did not restore defaults: %+v", Current())
	}
}

func TestWithTimeoutExpires(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	defer cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context did not expire")
	}
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v", ctx.Err())
	}
}
