package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// Access and load.
	ErrForbidden = "E_FORBIDDEN"
	ErrBusy      = "E_BUSY"

	// Race/world state.
	ErrNotFound      = "E_NOT_FOUND"
	ErrRaceFinished  = "E_RACE_FINISHED"
	ErrConfiguration = "E_CONFIGURATION"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrForbidden:       {},
	ErrBusy:            {},
	ErrNotFound:        {},
	ErrRaceFinished:    {},
	ErrConfiguration:   {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
