package ports

// EncoderSettings configures a GIF encoder instance.
type EncoderSettings struct {
	Width  int
	Height int
	// Quality is 1-100; the useful range is 50-100.
	Quality int
	// Fast trades quality for encoding speed.
	Fast bool
	// LoopCount sets the repetition count. 0 means loop forever.
	LoopCount int16
}

// PixelBuffer is a raw interleaved RGBA frame. Alpha is not premultiplied.
// BytesPerRow may exceed Width*4 due to row alignment.
type PixelBuffer struct {
	Width       int
	Height      int
	BytesPerRow int
	Data        []byte
}

// FrameRecord is one frame submitted to the encoder.
type FrameRecord struct {
	// Index is 0-based and must be submitted gap-free in order.
	Index  int
	Pixels PixelBuffer
	// Timestamp is the presentation time in seconds relative to the start
	// of the output animation, never negative.
	Timestamp float64
}

// ProgressFunc is invoked once per internally completed encode step.
// Returning false asks the encoder to stop cooperatively.
type ProgressFunc func() bool

// WriteFunc receives encoded output chunks in emission order.
type WriteFunc func(chunk []byte) error

// GifEncoder abstracts a stateful streaming GIF encoder.
//
// The lifecycle is create, SetProgressFunc/SetWriteFunc, AddFrame zero or
// more times, Finish exactly once, Release exactly once. Implementations
// invoke the write callback sequentially, never concurrently.
type GifEncoder interface {
	SetProgressFunc(fn ProgressFunc)
	SetWriteFunc(fn WriteFunc)

	// AddFrame submits one frame. Indices must be contiguous from 0.
	AddFrame(frame FrameRecord) error

	// Finish flushes remaining output and finalizes the stream.
	Finish() error

	// Release disposes encoder resources. It is safe to call after a
	// failed Finish and must be called exactly once.
	Release()
}
