package transport

import (
	"time"

	"searchgofer/internal/host"
)

// Observer is notified of every host attempt
type Observer interface {
	ObserveAttempt(hostURL string, role host.Role, kind OutcomeKind, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveAttempt(string, host.Role, OutcomeKind, time.Duration) {}
