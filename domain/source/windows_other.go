//go:build !windows

package source

// Window enumeration is only implemented on Windows.
func listWindows() ([]WindowInfo, error) { return nil, ErrUnsupported }

func windowInfo(handle uintptr) (WindowInfo, bool) { return WindowInfo{}, false }
