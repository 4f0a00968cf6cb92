package measure

import "fmt"

// ImageDecodeError means the input bytes or file could not be decoded into an image.
type ImageDecodeError struct {
	Source string
	Err    error
}

func (e *ImageDecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode image %q: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("decode image %q: empty image", e.Source)
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }

// FileNotFoundError means a named input file does not exist.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// InferenceError wraps a failure inside the detection model.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
