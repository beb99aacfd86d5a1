package log

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	// Logger is a contract for the logger.
	Logger interface {
		Debugf(format string, args ...interface{})
		Infof(format string, args ...interface{})
		Info(args ...interface{})
		Warnf(format string, args ...interface{})
		Errorf(format string, args ...interface{})
		Error(args ...interface{})
		Fatalf(format string, args ...interface{})
		With(args ...interface{}) Logger
		Flush() error
	}

	zapLogger struct {
		log *zap.SugaredLogger
	}
)

// New initializes and returns a new instance of a logger that writes JSON to stdout.
func New(appID, logLevel string) Logger {
	return newWithCore(appID, logLevel, func(enc zapcore.Encoder, lvl zap.AtomicLevel) zapcore.Core {
		return zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)
	})
}

func newWithCore(appID, logLevel string, core func(zapcore.Encoder, zap.AtomicLevel) zapcore.Core) *zapLogger {
	atom := zap.NewAtomicLevel()

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	log := zap.New(core(zapcore.NewJSONEncoder(encoderCfg), atom))

	atom.SetLevel(zap.InfoLevel)
	if logLevel != "" {
		if err := atom.UnmarshalText([]byte(strings.ToLower(logLevel))); err != nil {
			log.Error("invalid log level", zap.String("level", logLevel))
		}
	}

	return &zapLogger{log: log.Sugar().With("svc", appID)}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &zapLogger{log: zap.NewNop().Sugar()}
}

// Debugf .
func (l *zapLogger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

// Infof .
func (l *zapLogger) Infof(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

// Info .
func (l *zapLogger) Info(args ...interface{}) {
	l.log.Info(args...)
}

// Warnf .
func (l *zapLogger) Warnf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

// Errorf .
func (l *zapLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

// Error .
func (l *zapLogger) Error(args ...interface{}) {
	l.log.Error(args...)
}

// Fatalf .
func (l *zapLogger) Fatalf(format string, args ...interface{}) {
	l.log.Fatalf(format, args...)
}

// With .
func (l *zapLogger) With(args ...interface{}) Logger {
	return &zapLogger{l.log.With(args...)}
}

// Flush .
func (l *zapLogger) Flush() error {
	return l.log.Sync()
}
