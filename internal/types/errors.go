package types

import "errors"

// storage
var (
  ErrStorageUnavailable = errors.New("storage unavailable")
  ErrStorageFailed      = errors.New("storage operation failed")
  ErrNotFound           = errors.New("not found")
  ErrInvalidRole        = errors.New("invalid message role")
  ErrMalformedParams    = errors.New("malformed model parameters")
  ErrSchemaTooNew       = errors.New("database schema is newer than this build")
)

// gateway
var (
  ErrGatewayUnavailable = errors.New("inference gateway unavailable")
  ErrGatewayFailed      = errors.New("inference gateway error")
)

// generation
var (
  ErrGenerationBusy = errors.New("a generation is already in progress")
)
