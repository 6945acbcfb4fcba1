package pipeline

import "texclip/internal/fault"

// Invocation statuses shown to the user.
const (
	StatusSuccess           = "success"
	StatusNoImage           = "no image on clipboard"
	StatusCallFailed        = "call failed"
	StatusRecognitionFailed = "recognition failed"
	StatusEncodingFailed    = "encoding failed"
)

// FailureStatus is the status reported when an invocation in mode m fails for
// any reason other than an empty clipboard.
func (m Mode) FailureStatus() string {
	switch m {
	case ModeRemote:
		return StatusCallFailed
	case ModeEncode:
		return StatusEncodingFailed
	default:
		return StatusRecognitionFailed
	}
}

// StatusFor maps the result of an invocation in mode m to its status.
func StatusFor(m Mode, err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case fault.KindOf(err) == fault.NoImage:
		return StatusNoImage
	default:
		return m.FailureStatus()
	}
}

// IsSuccess reports whether status denotes a successful invocation.
func IsSuccess(status string) bool {
	return status == StatusSuccess
}
