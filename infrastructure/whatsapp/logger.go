package whatsapp

import (
	"strings"

	"github.com/sirupsen/logrus"
	waLog "go.mau.fi/whatsmeow/util/log"
)

var levelRank = map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3}

// logrusLogger routes whatsmeow's logging into logrus.
type logrusLogger struct {
	entry *logrus.Entry
	min   int
}

// NewLogger returns a waLog.Logger for module that drops records below level
// (DEBUG, INFO, WARN or ERROR).
func NewLogger(module, level string) waLog.Logger {
	min, ok := levelRank[strings.ToUpper(level)]
	if !ok {
		min = levelRank["ERROR"]
	}
	return &logrusLogger{entry: logrus.WithField("module", module), min: min}
}

func (l *logrusLogger) enabled(level string) bool {
	return levelRank[level] >= l.min
}

func (l *logrusLogger) Debugf(msg string, args ...any) {
	if l.enabled("DEBUG") {
		l.entry.Debugf("[WHATSAPP] "+msg, args...)
	}
}

func (l *logrusLogger) Infof(msg string, args ...any) {
	if l.enabled("INFO") {
		l.entry.Infof("[WHATSAPP] "+msg, args...)
	}
}

func (l *logrusLogger) Warnf(msg string, args ...any) {
	if l.enabled("WARN") {
		l.entry.Warnf("[WHATSAPP] "+msg, args...)
	}
}

func (l *logrusLogger) Errorf(msg string, args ...any) {
	l.entry.Errorf("[WHATSAPP] "+msg, args...)
}

func (l *logrusLogger) Sub(module string) waLog.Logger {
	parent, _ := l.entry.Data["module"].(string)
	return &logrusLogger{entry: logrus.WithField("module", parent+"/"+module), min: l.min}
}
