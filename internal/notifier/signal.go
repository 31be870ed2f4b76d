package notifier

import (
	"github.com/telephonyd/callnotifier/internal/telephony"
	"github.com/telephonyd/callnotifier/internal/tone"
)

// IS-95 signal-information record constants.
const (
	signalTypeTone  = 0
	signalTypeISDN  = 1
	signalTypeIS54B = 2

	pitchMed  = 0
	pitchHigh = 1
	pitchLow  = 2

	// signalType == signalTypeTone signal values
	toneSignalDial         = 1
	toneSignalRing         = 2
	toneSignalIntercept    = 3
	toneSignalAbbrIntMixed = 4
	toneSignalReorder      = 5
	toneSignalAbbrReorder  = 6
	toneSignalBusy         = 7
	toneSignalCallWaiting  = 10

	// signalType == signalTypeISDN signal values
	isdnSignalNormal     = 0
	isdnSignalIntergroup = 1
	isdnSignalSpecial    = 2
	isdnSignalPingRing   = 4

	// signalType == signalTypeIS54B signal values
	is54bSignalLong      = 1
	is54bSignalShort     = 2
	is54bSignalPipPip    = 6
	is54bSignalCallGuard = 7
)

type signalKey struct {
	signalType int
	alertPitch int
	signal     int
}

// pitchAny matches any alert pitch for signal types that ignore it.
const pitchAny = -1

// fixed (signalType, alertPitch, signal) -> tone lookup. The table is
// asymmetric on purpose; preserved as found rather than unified.
var signalToneTable = map[signalKey]tone.Kind{
	{signalTypeTone, pitchAny, toneSignalBusy}:         tone.KindSignalNetworkBusy,
	{signalTypeTone, pitchAny, toneSignalReorder}:      tone.KindSignalAbbrReorder,
	{signalTypeTone, pitchAny, toneSignalAbbrReorder}:  tone.KindSignalAbbrReorder,
	{signalTypeTone, pitchAny, toneSignalIntercept}:    tone.KindSignalAbbrIntercept,
	{signalTypeTone, pitchAny, toneSignalAbbrIntMixed}: tone.KindSignalAbbrIntercept,
	{signalTypeTone, pitchAny, toneSignalCallWaiting}:  tone.KindSignalAbbrAlert,

	{signalTypeISDN, pitchAny, isdnSignalIntergroup}: tone.KindSignalAbbrAlert,
	{signalTypeISDN, pitchAny, isdnSignalSpecial}:    tone.KindSignalAbbrAlert,
	{signalTypeISDN, pitchAny, isdnSignalPingRing}:   tone.KindSignalAbbrAlert,
	{signalTypeISDN, pitchLow, isdnSignalNormal}:     tone.KindSignalPitchLow,
	{signalTypeISDN, pitchMed, isdnSignalNormal}:     tone.KindSignalPitchMed,
	{signalTypeISDN, pitchHigh, isdnSignalNormal}:    tone.KindSignalPitchHigh,

	{signalTypeIS54B, pitchLow, is54bSignalLong}:      tone.KindSignalPitchLow,
	{signalTypeIS54B, pitchMed, is54bSignalLong}:      tone.KindSignalPitchMed,
	{signalTypeIS54B, pitchHigh, is54bSignalLong}:     tone.KindSignalPitchHigh,
	{signalTypeIS54B, pitchAny, is54bSignalShort}:     tone.KindSignalAbbrAlert,
	{signalTypeIS54B, pitchAny, is54bSignalPipPip}:    tone.KindSignalAbbrAlert,
	{signalTypeIS54B, pitchAny, is54bSignalCallGuard}: tone.KindSignalCallGuard,
}

// signalToneFor maps a signal-information record to the tone to play, or
// KindNone when the record is absent or selects silence.
func signalToneFor(info telephony.SignalInfo) tone.Kind {
	if !info.IsPresent {
		return tone.KindNone
	}
	if k, ok := signalToneTable[signalKey{info.SignalType, info.AlertPitch, info.Signal}]; ok {
		return k
	}
	if k, ok := signalToneTable[signalKey{info.SignalType, pitchAny, info.Signal}]; ok {
		return k
	}
	return tone.KindNone
}
