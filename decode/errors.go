package decode

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNotAIFF           = errors.New("not a valid aiff file")
	ErrUnsupportedDepth  = errors.New("unsupported aiff bit depth")
	ErrBackwardSeek      = errors.New("aiff stream cannot seek backwards")
)
