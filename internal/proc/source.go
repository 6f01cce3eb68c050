package proc

import (
	"fmt"
	"runtime"
)

// ListerFromName creates a Lister by name.
func ListerFromName(name string) (Lister, error) {
	switch name {
	case "", "ps":
		return NewPS(), nil
	case "gopsutil":
		return NewGopsutil(), nil
	default:
		return nil, fmt.Errorf("unknown process source %q (supported: ps, gopsutil)", name)
	}
}

// DefaultFootprinter picks the footprint source for the running OS.
// It returns nil when the OS has none; rows then carry no swap or
// physical figures.
func DefaultFootprinter() (Footprinter, error) {
	switch runtime.GOOS {
	case "darwin":
		return NewVmmap(), nil
	case "linux":
		fs, err := NewProcfs("")
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, nil
	}
}
