// Package notify is the engine's toast equivalent: transient,
// non-blocking user-visible notices. Failures in background sync or
// persistence end up here instead of as returned errors.
package notify

import "go.uber.org/zap"

// Notifier receives transient user-facing notices.
type Notifier interface {
	Success(title, detail string)
	Error(title, detail string)
}

// LogNotifier writes notices to the structured log; the terminal client
// uses it in place of a toast overlay.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(title, detail string) {
	n.logger.Info(title, zap.String("detail", detail))
}

func (n *LogNotifier) Error(title, detail string) {
	n.logger.Warn(title, zap.String("detail", detail))
}
