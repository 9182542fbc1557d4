package helio

import "errors"

var (
	ErrIdentityMismatch = errors.New("helio: items have different identities")
	ErrDeltaOutOfRange  = errors.New("helio: no delta registered at that index")
	ErrPayloadMismatch  = errors.New("helio: payload tag does not match the delta type")
	ErrKindUnknown      = errors.New("helio: no diff logic registered for the kind")
	ErrItemUnknown      = errors.New("helio: unknown tracked item")
	ErrStoreClosed      = errors.New("helio: the store is closed")
)
