package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session routing.
	ErrSessionNotFound = "E_SESSION_NOT_FOUND"
	ErrSessionBusy     = "E_SESSION_BUSY"

	// Action layer.
	ErrBadRequest     = "E_BAD_REQUEST"
	ErrUnknownTile    = "E_UNKNOWN_TILE"
	ErrUnknownCompany = "E_UNKNOWN_COMPANY"
	ErrInvalidTarget  = "E_INVALID_TARGET"
	ErrCapacity       = "E_CAPACITY"
	ErrMissingAmount  = "E_MISSING_AMOUNT"
	ErrInternal       = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrSessionNotFound: {},
	ErrSessionBusy:     {},
	ErrBadRequest:      {},
	ErrUnknownTile:     {},
	ErrUnknownCompany:  {},
	ErrInvalidTarget:   {},
	ErrCapacity:        {},
	ErrMissingAmount:   {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
