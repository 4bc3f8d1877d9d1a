//go:build unix

package terminal

import "golang.org/x/sys/unix"

// PixelSize asks the terminal on fd for its size in cells and pixels.
// ok is false when the terminal does not report a pixel size.
func PixelSize(fd uintptr) (cols, rows, xpix, ypix int, ok bool) {
	ws, err := unix.IoctlGetWinsize(int(fd), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, 0, 0, false
	}
	if ws.Xpixel == 0 || ws.Ypixel == 0 {
		return int(ws.Col), int(ws.Row), 0, 0, false
	}
	return int(ws.Col), int(ws.Row), int(ws.Xpixel), int(ws.Ypixel), true
}
