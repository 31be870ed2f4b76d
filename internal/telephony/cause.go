package telephony

// DisconnectCause enumerates why a connection ended, as reported by the
// radio layer on disconnect.
type DisconnectCause int

const (
	CauseNotDisconnected DisconnectCause = iota
	CauseNormal
	CauseLocal
	CauseBusy
	CauseCongestion
	CauseCdmaReorder
	CauseCdmaIntercept
	CauseCdmaDrop
	CauseCdmaLockedUntilPowerCycle
	CauseOutOfService
	CauseUnobtainableNumber
	CauseErrorUnspecified
	CauseIncomingMissed
	CauseIncomingRejected
	CauseLost
	CausePowerOff
)

var causeNames = map[DisconnectCause]string{
	CauseNotDisconnected:           "not_disconnected",
	CauseNormal:                    "normal",
	CauseLocal:                     "local",
	CauseBusy:                      "busy",
	CauseCongestion:                "congestion",
	CauseCdmaReorder:               "cdma_reorder",
	CauseCdmaIntercept:             "cdma_intercept",
	CauseCdmaDrop:                  "cdma_drop",
	CauseCdmaLockedUntilPowerCycle: "cdma_locked",
	CauseOutOfService:              "out_of_service",
	CauseUnobtainableNumber:        "unobtainable_number",
	CauseErrorUnspecified:          "error_unspecified",
	CauseIncomingMissed:            "incoming_missed",
	CauseIncomingRejected:          "incoming_rejected",
	CauseLost:                      "lost",
	CausePowerOff:                  "power_off",
}

func (c DisconnectCause) String() string {
	if n, ok := causeNames[c]; ok {
		return n
	}
	return "unknown"
}

// ParseCause maps a wire cause name back to its enum value.
func ParseCause(name string) DisconnectCause {
	for c, n := range causeNames {
		if n == name {
			return c
		}
	}
	return CauseErrorUnspecified
}
