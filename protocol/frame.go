package protocol

import (
	"fmt"
	"io"

	"lan-chat/domain"
	"lan-chat/errors"

	"github.com/libp2p/go-msgio"
)

// DefaultMaxFrameSize bounds a single chat frame on the relay stream.
const DefaultMaxFrameSize = 64 * 1024

// FrameWriter writes length-prefixed frames (4-byte big-endian length).
// Writes are serialized, so concurrent senders never interleave frames.
type FrameWriter struct {
	w            msgio.WriteCloser
	maxFrameSize int
}

func NewFrameWriter(w io.Writer) *FrameWriter {
	return NewFrameWriterSize(w, DefaultMaxFrameSize)
}

// NewFrameWriterSize refuses frames the receiving FrameReader would reject.
func NewFrameWriterSize(w io.Writer, maxFrameSize int) *FrameWriter {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &FrameWriter{w: msgio.NewWriter(w), maxFrameSize: maxFrameSize}
}

// WriteFrame writes payload as one frame. Nothing is written when the payload
// is above the size limit.
func (f *FrameWriter) WriteFrame(payload []byte) error {
	if err := CheckFrameSize(payload, f.maxFrameSize); err != nil {
		return err
	}
	return f.w.WriteMsg(payload)
}

// WriteChat encodes msg and writes it as one frame.
func (f *FrameWriter) WriteChat(msg domain.ChatMessage) error {
	payload, err := EncodeChat(msg)
	if err != nil {
		return err
	}
	return f.WriteFrame(payload)
}

// CheckFrameSize returns errors.ErrMessageTooLarge when payload does not fit
// in one frame of maxFrameSize bytes.
func CheckFrameSize(payload []byte, maxFrameSize int) error {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	if len(payload) > maxFrameSize {
		return fmt.Errorf("%w: %d bytes, limit %d", errors.ErrMessageTooLarge, len(payload), maxFrameSize)
	}
	return nil
}

// FrameReader reads frames written by FrameWriter, buffering partial reads
// until a whole frame is available.
type FrameReader struct {
	r msgio.ReadCloser
}

func NewFrameReader(r io.Reader, maxFrameSize int) *FrameReader {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &FrameReader{r: msgio.NewReaderSize(r, maxFrameSize)}
}

// ReadChat reads the next frame and decodes it as a chat message.
// io.EOF means the peer closed the stream. A frame above the size limit
// returns msgio.ErrMsgTooLarge and the stream cannot be resynchronized.
// Decode errors leave the stream usable.
func (f *FrameReader) ReadChat() (domain.ChatMessage, error) {
	frame, err := f.r.ReadMsg()
	if err != nil {
		return domain.ChatMessage{}, err
	}
	if len(frame) == 0 {
		return domain.ChatMessage{}, fmt.Errorf("%w: empty frame", errors.ErrMalformedPayload)
	}
	defer f.r.ReleaseMsg(frame)
	return DecodeChat(frame)
}
