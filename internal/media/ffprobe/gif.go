package ffprobe

import (
	"fmt"
	"image/gif"
	"os"
)

// ReadGIFLoopCount returns the GIF's loop count using ffmpeg's -loop convention
// (0 forever, -1 once, n extra repeats), which matches the NETSCAPE extension.
func ReadGIFLoopCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoded, err := gif.DecodeAll(f)
	if err != nil {
		return 0, fmt.Errorf("decode gif: %w", err)
	}
	return decoded.LoopCount, nil
}
