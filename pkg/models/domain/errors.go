package domain

import "errors"

var (
	ErrSourceLoad        = errors.New("no source could be loaded")
	ErrNoValidSourceData = errors.New("sources yielded no usable rows")
	ErrRender            = errors.New("render failed")
	ErrLookup            = errors.New("document lookup failed")
	ErrWrite             = errors.New("document write failed")
	ErrCredentials       = errors.New("credentials could not be resolved")
	ErrVersionConflict   = errors.New("document version conflict")
)
