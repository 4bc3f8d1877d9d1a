//go:build !unix

package terminal

// PixelSize is not available on this platform.
func PixelSize(fd uintptr) (cols, rows, xpix, ypix int, ok bool) {
	return 0, 0, 0, 0, false
}
