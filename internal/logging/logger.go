package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Dir    string // log directory; rotated file is <Dir>/<Name>.log
	Name   string
	Level  string // debug|info|warn|error
	Stdout bool   // also write JSON lines to stdout
}

func NewLogger(logDir string) (*zap.Logger, error) {
	return New(Options{Dir: logDir})
}

func New(o Options) (*zap.Logger, error) {
	if o.Name == "" {
		o.Name = "monitord"
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return nil, err
	}
	level := zap.InfoLevel
	if o.Level != "" {
		if err := level.UnmarshalText([]byte(o.Level)); err != nil {
			level = zap.InfoLevel
		}
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(o.Dir, o.Name+".log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	if o.Stdout {
		w = zapcore.NewMultiWriteSyncer(w, zapcore.Lock(os.Stdout))
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level)
	return zap.New(core, zap.AddCaller()), nil
}
