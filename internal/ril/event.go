// Package ril speaks the radio-interface-layer bridge protocol: newline
// delimited "Key: Value" blocks carrying call events in, and action blocks
// carrying commands out. The telephony runtime behind the bridge stays
// external; this package only ferries its state.
package ril

import (
	"strconv"
	"strings"
	"time"
)

// Event represents a parsed bridge event as an ordered set of key-value
// pairs.
type Event struct {
	headers []header
}

type header struct {
	Key   string
	Value string
}

// NewEvent creates an Event from a slice of key-value pairs.
func NewEvent(kvs ...string) Event {
	e := Event{}
	for i := 0; i+1 < len(kvs); i += 2 {
		e.headers = append(e.headers, header{Key: kvs[i], Value: kvs[i+1]})
	}
	return e
}

// Get returns the value for the given key, or empty string if not found.
func (e Event) Get(key string) string {
	for _, h := range e.headers {
		if h.Key == key {
			return h.Value
		}
	}
	return ""
}

// Has reports whether the key is present at all.
func (e Event) Has(key string) bool {
	for _, h := range e.headers {
		if h.Key == key {
			return true
		}
	}
	return false
}

// Type returns the Event header value (the bridge event type).
func (e Event) Type() string {
	return e.Get("Event")
}

// GetInt returns the integer value for the given key, or 0 if not
// found/parseable.
func (e Event) GetInt(key string) int {
	v, _ := strconv.Atoi(e.Get(key))
	return v
}

// GetBool returns the boolean value for the given key; only "true" and
// "1" count as true.
func (e Event) GetBool(key string) bool {
	v := e.Get(key)
	return v == "true" || v == "1"
}

// GetTime returns the timestamp for the given key parsed as RFC3339, or
// zero time.
func (e Event) GetTime(key string) time.Time {
	t, _ := time.Parse(time.RFC3339, e.Get(key))
	return t
}

// Sub extracts the headers sharing a key prefix as their own Event with
// the prefix stripped. The wire format is flat, so the bridge nests a
// connection record into an event by prefixing its keys (RingingID,
// RingingState, FgID and so on).
func (e Event) Sub(prefix string) Event {
	var sub Event
	for _, h := range e.headers {
		if len(h.Key) > len(prefix) && strings.HasPrefix(h.Key, prefix) {
			sub.headers = append(sub.headers, header{Key: h.Key[len(prefix):], Value: h.Value})
		}
	}
	return sub
}

// Headers returns all headers as key-value pairs.
func (e Event) Headers() []header {
	return e.headers
}

// IsResponse returns true if this is a bridge response rather than an
// event.
func (e Event) IsResponse() bool {
	return e.Get("Response") != ""
}
