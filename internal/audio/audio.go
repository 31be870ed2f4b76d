// Package audio defines the routing port the notifier drives: audio mode,
// speaker, Bluetooth SCO and mute. The concrete implementation lives with
// the RIL bridge; tests use the recording Mock.
package audio

// Mode is the platform audio mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeRinging
	ModeInCall
)

func (m Mode) String() string {
	switch m {
	case ModeRinging:
		return "ringing"
	case ModeInCall:
		return "in_call"
	}
	return "normal"
}

// RingerMode is the device-wide ringer setting.
type RingerMode int

const (
	RingerModeNormal RingerMode = iota
	RingerModeVibrate
	RingerModeSilent
)

func (m RingerMode) String() string {
	switch m {
	case RingerModeVibrate:
		return "vibrate"
	case RingerModeSilent:
		return "silent"
	}
	return "normal"
}

// Router is the audio-routing command surface. Implementations must be
// safe for use from the notifier goroutine and tone-player goroutines.
type Router interface {
	SetMode(Mode)
	Mode() Mode
	RingerMode() RingerMode
	SetSpeaker(on bool)
	SetBluetoothSco(on bool)
	SetMuted(on bool)
	Muted() bool
}
