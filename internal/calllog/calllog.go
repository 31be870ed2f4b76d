// Package calllog persists finished calls.
package calllog

import (
	"context"
	"time"

	"github.com/telephonyd/callnotifier/internal/telephony"
)

// Type classifies a logged call.
type Type int

const (
	TypeIncoming Type = iota
	TypeOutgoing
	TypeMissed
	TypeRejected
)

func (t Type) String() string {
	switch t {
	case TypeOutgoing:
		return "outgoing"
	case TypeMissed:
		return "missed"
	case TypeRejected:
		return "rejected"
	}
	return "incoming"
}

// Record is one call-log entry.
type Record struct {
	ID           string
	Number       string
	Name         string
	Presentation telephony.Presentation
	Type         Type
	Start        time.Time
	Duration     time.Duration
	Cause        telephony.DisconnectCause
}

// Classify derives the log type for a finished connection. waitingTimedOut
// marks a CDMA call-waiting alert the user never acted on; those log as
// missed even though the radio reports a normal cause.
func Classify(conn *telephony.Connection, waitingTimedOut bool) Type {
	if !conn.Incoming {
		return TypeOutgoing
	}
	if waitingTimedOut {
		return TypeMissed
	}
	switch conn.Cause {
	case telephony.CauseIncomingMissed:
		return TypeMissed
	case telephony.CauseIncomingRejected:
		return TypeRejected
	}
	return TypeIncoming
}

// Store persists call records.
type Store interface {
	Log(ctx context.Context, rec Record) error
	Close() error
}
