package logx

import "errors"

// Sentinel errors returned by Config.Validate and Factory.New.
var (
	ErrInvalidLevel       = errors.New("invalid log level")
	ErrInvalidFormat      = errors.New("invalid format")
	ErrInvalidTarget      = errors.New("invalid console target")
	ErrInvalidNetwork     = errors.New("invalid network")
	ErrInvalidSampleRate  = errors.New("sample rate must be within [0, 1]")
	ErrMissingConstructor = errors.New("missing output constructor")
)

// ErrServiceClosed is returned by Service.Apply after Close.
var ErrServiceClosed = errors.New("logging service closed")
