package ffprobe

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// APNGTiming is the animation table read from an APNG's own chunks.
type APNGTiming struct {
	// Delays holds each frame's display time in seconds.
	Delays []float64
	// NumPlays is the acTL play count; 0 means forever.
	NumPlays int
}

// TotalDelay sums the frame delays.
func (t APNGTiming) TotalDelay() float64 {
	var total float64
	for _, d := range t.Delays {
		total += d
	}
	return total
}

// FrameRate is frames divided by total delay, or 0 for a zero-length animation.
func (t APNGTiming) FrameRate() float64 {
	total := t.TotalDelay()
	if total <= 0 {
		return 0
	}
	return float64(len(t.Delays)) / total
}

// FFmpegLoop maps num_plays onto ffmpeg's -loop convention, where 0 loops
// forever and -1 plays once.
func (t APNGTiming) FFmpegLoop() int {
	switch {
	case t.NumPlays <= 0:
		return 0
	case t.NumPlays == 1:
		return -1
	default:
		return t.NumPlays - 1
	}
}

// ReadAPNGTiming reads acTL and fcTL chunks from the file at path.
func ReadAPNGTiming(path string) (APNGTiming, error) {
	f, err := os.Open(path)
	if err != nil {
		return APNGTiming{}, err
	}
	defer f.Close()
	return ParseAPNGTiming(f)
}

// ParseAPNGTiming walks PNG chunks until IEND, collecting animation control
// data. Chunk CRCs are not verified.
func ParseAPNGTiming(r io.Reader) (APNGTiming, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return APNGTiming{}, fmt.Errorf("read png signature: %w", err)
	}
	if !bytes.Equal(sig, pngSignature) {
		return APNGTiming{}, errors.New("not a png file")
	}

	var (
		timing  APNGTiming
		sawACTL bool
		header  [8]byte
	)
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return APNGTiming{}, fmt.Errorf("read chunk header: %w", err)
		}
		length := binary.BigEndian.Uint32(header[:4])
		kind := string(header[4:8])

		switch kind {
		case "acTL":
			data, err := readChunk(r, length, 8)
			if err != nil {
				return APNGTiming{}, err
			}
			timing.NumPlays = int(binary.BigEndian.Uint32(data[4:8]))
			sawACTL = true
		case "fcTL":
			data, err := readChunk(r, length, 26)
			if err != nil {
				return APNGTiming{}, err
			}
			num := float64(binary.BigEndian.Uint16(data[20:22]))
			den := float64(binary.BigEndian.Uint16(data[22:24]))
			if den == 0 {
				den = 100
			}
			timing.Delays = append(timing.Delays, num/den)
		case "IEND":
			if !sawACTL {
				return APNGTiming{}, errors.New("png has no animation control chunk")
			}
			return timing, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(length)+4); err != nil {
				return APNGTiming{}, fmt.Errorf("skip %s chunk: %w", kind, err)
			}
		}
	}
	if !sawACTL {
		return APNGTiming{}, errors.New("png has no animation control chunk")
	}
	return timing, nil
}

// maxControlChunk bounds acTL/fcTL bodies. Both have fixed sizes (8 and 26
// bytes); the slack only tolerates writers that pad them.
const maxControlChunk = 64

// readChunk reads the first size bytes of a control chunk body and discards
// the rest plus the CRC.
func readChunk(r io.Reader, length uint32, size int) ([]byte, error) {
	if int64(length) < int64(size) || length > maxControlChunk {
		return nil, fmt.Errorf("control chunk has invalid length %d (want %d)", length, size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read chunk: %w", err)
	}
	if _, err := io.CopyN(io.Discard, r, int64(length)-int64(size)+4); err != nil {
		return nil, fmt.Errorf("read chunk: %w", err)
	}
	return data, nil
}
