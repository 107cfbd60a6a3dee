// Package selector picks the device to connect to from a scan result list.
package selector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/srg/imuble/internal/device"
	"golang.org/x/term"
)

// Selector returns an index into devices
type Selector interface {
	Select(devices []device.DiscoveredDevice) (int, error)
}

// Func adapts a plain function to Selector
type Func func(devices []device.DiscoveredDevice) (int, error)

func (f Func) Select(devices []device.DiscoveredDevice) (int, error) {
	return f(devices)
}

// FirstMatch always picks the first device
var FirstMatch Selector = Index(0)

// Index always picks the device at position i
func Index(i int) Selector {
	return Func(func(devices []device.DiscoveredDevice) (int, error) {
		return checkRange(i, len(devices))
	})
}

func checkRange(i, n int) (int, error) {
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %d is out of range, %d device(s) found", device.ErrInvalidSelection, i, n)
	}
	return i, nil
}

// Interactive lists the devices on out and reads a number from in
type Interactive struct {
	in     *bufio.Reader
	out    io.Writer
	colors bool
}

// NewInteractive creates a console selector
func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	return &Interactive{in: bufio.NewReader(in), out: out}
}

// WithColors enables coloured listing output
func (s *Interactive) WithColors(enable bool) *Interactive {
	s.colors = enable
	return s
}

func (s *Interactive) Select(devices []device.DiscoveredDevice) (int, error) {
	if err := List(s.out, devices, s.colors); err != nil {
		return 0, err
	}
	if _, err := fmt.Fprint(s.out, "\nEnter device number to connect: "); err != nil {
		return 0, err
	}

	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return 0, fmt.Errorf("%w: no input: %w", device.ErrInvalidSelection, err)
	}

	input := strings.TrimSpace(line)
	idx, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", device.ErrInvalidSelection, input)
	}
	return checkRange(idx, len(devices))
}

// List prints devices as "index: name (RSSI: n)"
func List(w io.Writer, devices []device.DiscoveredDevice, colors bool) error {
	index := color.New(color.FgCyan, color.Bold)
	unnamed := color.New(color.Faint)
	if colors {
		index.EnableColor()
		unnamed.EnableColor()
	} else {
		index.DisableColor()
		unnamed.DisableColor()
	}

	for i, d := range devices {
		name := d.DisplayName()
		if !d.HasName() {
			name = unnamed.Sprint(name)
		}
		if _, err := fmt.Fprintf(w, "%s: %s (RSSI: %d)\n", index.Sprint(i), name, d.RSSI); err != nil {
			return err
		}
	}
	return nil
}

// Default prompts when in is a terminal and falls back to the first match otherwise
func Default(in *os.File, out io.Writer) Selector {
	if in != nil && term.IsTerminal(int(in.Fd())) {
		_, colored := out.(*os.File)
		return NewInteractive(in, out).WithColors(colored && !color.NoColor)
	}
	return FirstMatch
}
