package types

import "errors"

var (
	ErrConfig     = errors.New("configuration error")
	ErrResolution = errors.New("address resolution failed")
	ErrNotify     = errors.New("notification failed")
	ErrStore      = errors.New("state store error")
)
