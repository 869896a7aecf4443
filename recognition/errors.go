package recognition

import "errors"

// ErrInvalidImage marks a payload that could not be decoded. The submission
// is rejected before detection runs, with no attendance side effects.
var ErrInvalidImage = errors.New("invalid or unreadable image payload")

// ErrNoFaceDetected is returned by enrollment when the photo contains no
// usable face. Attendance submissions treat zero faces as a valid result
// instead.
var ErrNoFaceDetected = errors.New("no face detected in image")
