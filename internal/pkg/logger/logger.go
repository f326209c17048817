package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = NewLogger("development")

// NewLogger は環境に応じたロガーを作成する
// production は JSON、それ以外は色付きのコンソール出力。LOG_LEVEL でレベルを上書きできる
func NewLogger(env string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if level, ok := levelFromEnv(); ok {
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	// スタックトレースは Error 以上のみ
	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func levelFromEnv() (zapcore.Level, bool) {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return zapcore.InfoLevel, false
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return zapcore.InfoLevel, false
	}
	return level, true
}

// Init はサービス名と環境を付けたロガーをグローバルに設定する
// zap.L() と標準 log パッケージ（migrate などが使う）の出力も同じロガーに流す
func Init(env, service string) *zap.Logger {
	l := NewLogger(env).With(zap.String("service", service), zap.String("env", env))
	Set(l)
	zap.ReplaceGlobals(l)
	_ = zap.RedirectStdLog(l)
	return l
}

func Get() *zap.Logger { return log }

func Set(l *zap.Logger) { log = l }

func Debug(msg string, fields ...zap.Field) { log.Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { log.Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { log.Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { log.Error(msg, fields...) }

func Fatal(msg string, fields ...zap.Field) { log.Fatal(msg, fields...) }

// With はフィールドを固定した子ロガーを返す
func With(fields ...zap.Field) *zap.Logger { return log.With(fields...) }

func Sync() error { return log.Sync() }
