package ocr

import "errors"

// ErrUnreadableImage is returned when the upload cannot be decoded as an image.
var ErrUnreadableImage = errors.New("unreadable image")

// ErrEmptyImage is returned for zero-byte input.
var ErrEmptyImage = errors.New("empty image")
