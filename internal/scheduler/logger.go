package scheduler

import "go.uber.org/zap"

// cronLogger routes robfig/cron's own logging into zap. Its per-run info
// chatter goes to debug.
type cronLogger struct{ log *zap.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw("cron_"+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw("cron_"+msg, append(keysAndValues, "error", err)...)
}
