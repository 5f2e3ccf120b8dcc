package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger writes JSON logs to a rotating file under logDir and, when
// console is true, mirrors them to stderr so one-shot CLI runs stay readable.
func NewLogger(logDir string, console bool) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "portalcheck.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, zap.InfoLevel)
	if console {
		ccfg := zap.NewDevelopmentEncoderConfig()
		core = zapcore.NewTee(core,
			zapcore.NewCore(zapcore.NewConsoleEncoder(ccfg), zapcore.AddSync(os.Stderr), zap.InfoLevel))
	}
	return zap.New(core), nil
}
