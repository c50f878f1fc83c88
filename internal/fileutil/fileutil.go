// Package fileutil holds small file copy helpers shared by the ledger and the
// fetcher.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrTooLarge is returned by WriteLimited when the source exceeds the limit.
var ErrTooLarge = errors.New("content exceeds size limit")

// CopyFile streams src to dst with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// WriteLimited copies at most limit bytes from r into a new file at dst. A
// source longer than limit removes dst and returns ErrTooLarge. A limit of zero
// or less disables the cap.
func WriteLimited(dst string, r io.Reader, limit int64) (int64, error) {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	src := r
	if limit > 0 {
		// One extra byte distinguishes "exactly limit" from "over limit".
		src = io.LimitReader(r, limit+1)
	}
	written, err := io.Copy(out, src)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return written, err
	}
	if limit > 0 && written > limit {
		_ = out.Close()
		_ = os.Remove(dst)
		return written, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return written, out.Close()
}
