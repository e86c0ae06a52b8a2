package ocr

import "context"

// TextLineSource turns an image into recognised text lines in reading order.
// Lines may carry noise; callers must not assume they are clean.
type TextLineSource interface {
	Lines(ctx context.Context, image []byte) ([]string, error)
}

// SourceFunc adapts a function to TextLineSource.
type SourceFunc func(ctx context.Context, image []byte) ([]string, error)

func (f SourceFunc) Lines(ctx context.Context, image []byte) ([]string, error) {
	return f(ctx, image)
}

// StaticSource returns the same lines for every image. Used by tests and by
// dry runs that replay a saved OCR dump.
type StaticSource []string

func (s StaticSource) Lines(ctx context.Context, _ []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}
