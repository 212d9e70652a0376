package logger

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ModeConsole = "console"
	ModeFile    = "file"
)

type Options struct {
	Mode  string
	Level string
	Path  string
	Name  string
}

type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})

	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	Sync() error
}

type holder struct {
	Logger
}

// library code stays silent until a program installs a logger
var logging atomic.Pointer[holder]

func init() {
	SetLogger(zap.NewNop().Sugar())
}

func current() Logger {
	return logging.Load().Logger
}

// NewLogger builds a zap logger for o. An unparsable level falls back to info.
func NewLogger(o *Options) Logger {
	level, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	switch o.Mode {
	case ModeFile:
		if o.Path == "" {
			o.Path = "./logs"
		}
		if o.Name == "" {
			path, _ := os.Executable()
			_, exec := filepath.Split(path)
			o.Name = exec
		}
		syncWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(o.Path, o.Name+".log"),
			MaxSize:    100,
			MaxBackups: 10,
			LocalTime:  true,
			Compress:   true,
		})
		encoder := zap.NewProductionEncoderConfig()
		encoder.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encoder), syncWriter, zap.NewAtomicLevelAt(level))
		return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
	default:
		config := zap.NewDevelopmentConfig()
		config.DisableStacktrace = true
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stderr"}
		logger, err := config.Build(zap.AddCallerSkip(1))
		if err != nil {
			return zap.NewNop().Sugar()
		}
		return logger.Sugar()
	}
}

// SetLogger replaces the package logger; safe while other goroutines log.
func SetLogger(logger Logger) {
	logging.Store(&holder{Logger: logger})
}

func Sync() error {
	return current().Sync()
}

func Debug(args ...interface{}) {
	current().Debug(args...)
}
func Debugf(msg string, args ...interface{}) {
	current().Debugf(msg, args...)
}
func Debugw(msg string, keysAndValues ...interface{}) {
	current().Debugw(msg, keysAndValues...)
}

func Info(args ...interface{}) {
	current().Info(args...)
}
func Infof(msg string, args ...interface{}) {
	current().Infof(msg, args...)
}
func Infow(msg string, keysAndValues ...interface{}) {
	current().Infow(msg, keysAndValues...)
}

func Warn(args ...interface{}) {
	current().Warn(args...)
}
func Warnf(msg string, args ...interface{}) {
	current().Warnf(msg, args...)
}
func Warnw(msg string, keysAndValues ...interface{}) {
	current().Warnw(msg, keysAndValues...)
}

func Error(args ...interface{}) {
	current().Error(args...)
}
func Errorf(msg string, args ...interface{}) {
	current().Errorf(msg, args...)
}
func Errorw(msg string, keysAndValues ...interface{}) {
	current().Errorw(msg, keysAndValues...)
}
