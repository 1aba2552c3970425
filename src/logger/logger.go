// Package logger holds the process-wide zap logger behind printf-style
// helpers so call sites stay short.
package logger

import "go.uber.org/zap"

var sugar = zap.Must(zap.NewProduction()).Sugar()

// Init replaces the default production logger. Debug switches to the
// development encoder with human-readable output.
func Init(debug bool) {
	var base *zap.Logger
	var err error
	if debug {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	sugar = base.Sugar()
}

func Infof(format string, args ...interface{}) {
	sugar.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	sugar.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	sugar.Errorf(format, args...)
}

// Panicf logs the message and panics; main uses it for unrecoverable
// startup failures.
func Panicf(format string, args ...interface{}) {
	sugar.Panicf(format, args...)
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	_ = sugar.Sync()
}
