package logger

import "go.uber.org/zap"

// Log is a no-op until Init runs, so packages may log freely under test.
var Log = zap.NewNop()

func Init(level string) {
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	Log = zap.Must(cfg.Build())
}
