package storage

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
)

// badgerLogger routes BadgerDB's printf-style logging to a logr.Logger.
// Debug output goes to V(2) and info to V(1).
type badgerLogger struct {
	log logr.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(nil, l.msg(format, args))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Info(l.msg(format, args), "level", "warning")
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.V(1).Info(l.msg(format, args))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.V(2).Info(l.msg(format, args))
}

func (badgerLogger) msg(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
