package zap

import (
	"errors"
	"testing"

	"github.com/unkn0wn-root/swcache"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := ZapLogger{L: zap.New(core)}

	l.Warn("cache write failed", swcache.Fields{"partition": "app-runtime", "err": errors.New("boom")})
	l.Info("no fields", nil)

	all := logs.AllUntimed()
	if len(all) != 2 {
		t.Fatalf("entries=%d", len(all))
	}
	ctx := all[0].ContextMap()
	if all[0].Level != zapcore.WarnLevel || ctx["partition"] != "app-runtime" || ctx["err"] != "boom" {
		t.Fatalf("entry=%+v ctx=%v", all[0].Entry, ctx)
	}
}
