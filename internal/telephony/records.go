package telephony

// SignalInfo is a CDMA network signal-information record: the triple that
// selects which alerting tone the network wants played.
type SignalInfo struct {
	SignalType int
	AlertPitch int
	Signal     int
	IsPresent  bool
}

// DisplayInfo is a CDMA network display record (caller name, banner text).
type DisplayInfo struct {
	Text string
}

// CdmaWaitingInfo describes an incoming CDMA call-waiting alert.
type CdmaWaitingInfo struct {
	Address      string
	Presentation Presentation
}
