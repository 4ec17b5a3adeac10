package eventstore

import (
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Sentinel errors; returned errors match them with errors.Is and carry the cause.
var (
	ErrDatabaseOpenFailed     = derrors.StoreError("could not open event store database").Build()
	ErrInitializeSchemaFailed = derrors.StoreError("failed to initialize event store schema").Build()
	ErrEventAppendFailed      = derrors.StoreError("failed to append event to store").Build()
	ErrEventQueryFailed       = derrors.StoreError("failed to query events from store").Build()
	ErrMarshalPayloadFailed   = derrors.StoreError("failed to marshal event payload").Build()
)

func wrap(sentinel *derrors.ClassifiedError, err error) error {
	return derrors.WrapError(err, derrors.CategoryStore, sentinel.Message()).Build()
}
