package fetch

import (
	"fmt"
	"io"
	"os"
)

// copyWithProgress copies src to dst, printing a percentage to stderr when
// show is set and the total size is known.
func copyWithProgress(dst io.Writer, src io.Reader, total int64, show bool) (int64, error) {
	if !show || total <= 0 {
		return io.Copy(dst, src)
	}

	var copied int64
	lastPercent := -1

	buf := make([]byte, 32*1024)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return copied, writeErr
			}
			copied += int64(n)
			percent := int(copied * 100 / total)
			if percent != lastPercent {
				fmt.Fprintf(os.Stderr, "\rDownloading... %d%%", percent)
				lastPercent = percent
			}
		}
		if readErr == io.EOF {
			fmt.Fprintln(os.Stderr)
			return copied, nil
		}
		if readErr != nil {
			return copied, readErr
		}
	}
}
