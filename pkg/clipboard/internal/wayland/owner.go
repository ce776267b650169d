//go:build linux

// Package wayland owns the Wayland selection through the wlr data-control
// protocol and serves every offered MIME type until another client takes
// the selection over.
package wayland

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Object ids assigned by this client.
const (
	idDisplay   uint32 = 1
	idRegistry  uint32 = 2
	idSyncFirst uint32 = 3
	idSeat      uint32 = 4
	idManager   uint32 = 5 // zwlr_data_control_manager_v1
	idSource    uint32 = 6 // zwlr_data_control_source_v1
	idDevice    uint32 = 7 // zwlr_data_control_device_v1
	idSyncOwned uint32 = 8
)

const (
	ifaceSeat    = "wl_seat"
	ifaceManager = "zwlr_data_control_manager_v1"
)

// SocketPath returns the compositor socket named by the environment.
func SocketPath() (string, error) {
	runtime := os.Getenv("XDG_RUNTIME_DIR")
	if runtime == "" {
		return "", fmt.Errorf("wayland: XDG_RUNTIME_DIR not set")
	}
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	if filepath.IsAbs(display) {
		return display, nil
	}
	return filepath.Join(runtime, display), nil
}

// Available reports whether a Wayland session is running.
func Available() bool {
	if os.Getenv("WAYLAND_DISPLAY") == "" {
		return false
	}
	path, err := SocketPath()
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode()&os.ModeSocket != 0
}

// Owner serves a fixed set of MIME types.
type Owner struct {
	Formats map[string][]byte
	// OnSend, when set, is called for every paste request.
	OnSend func(mime string, served bool)
}

// Serve claims the selection and blocks until ownership is cancelled or the
// compositor goes away.
func (o *Owner) Serve() error {
	path, err := SocketPath()
	if err != nil {
		return err
	}
	c, err := dial(path)
	if err != nil {
		return fmt.Errorf("wayland: connect %s: %w", path, err)
	}
	defer c.close()

	seat, manager, err := discover(c)
	if err != nil {
		return err
	}
	if err := o.claim(c, seat, manager); err != nil {
		return err
	}
	return o.loop(c)
}

// discover lists the registry globals and returns the names of the seat and
// the data-control manager.
func discover(c *conn) (seat, manager uint32, err error) {
	if err := c.request(idDisplay, 1 /* get_registry */, uint32Arg(idRegistry)); err != nil {
		return 0, 0, err
	}
	if err := c.request(idDisplay, 0 /* sync */, uint32Arg(idSyncFirst)); err != nil {
		return 0, 0, err
	}

	var haveSeat, haveManager bool
	for {
		m, err := c.next()
		if err != nil {
			return 0, 0, err
		}
		m.closeFd()

		if m.object == idSyncFirst && m.opcode == 0 /* done */ {
			break
		}
		if m.object != idRegistry || m.opcode != 0 /* global */ || len(m.payload) < 4 {
			continue
		}
		name := le.Uint32(m.payload[:4])
		iface, _, err := decodeString(m.payload[4:])
		if err != nil {
			continue
		}
		switch iface {
		case ifaceSeat:
			seat, haveSeat = name, true
		case ifaceManager:
			manager, haveManager = name, true
		}
	}

	if !haveSeat {
		return 0, 0, fmt.Errorf("wayland: %s not found", ifaceSeat)
	}
	if !haveManager {
		return 0, 0, fmt.Errorf("wayland: %s not found (compositor may not support wlr-data-control)", ifaceManager)
	}
	return seat, manager, nil
}

func (o *Owner) claim(c *conn, seat, manager uint32) error {
	steps := []struct {
		object uint32
		opcode uint16
		args   [][]byte
	}{
		// wl_registry.bind carries the interface inline before the new id.
		{idRegistry, 0, [][]byte{uint32Arg(seat), stringArg(ifaceSeat), uint32Arg(1), uint32Arg(idSeat)}},
		{idRegistry, 0, [][]byte{uint32Arg(manager), stringArg(ifaceManager), uint32Arg(2), uint32Arg(idManager)}},
		{idManager, 0 /* create_data_source */, [][]byte{uint32Arg(idSource)}},
	}
	for _, s := range steps {
		if err := c.request(s.object, s.opcode, s.args...); err != nil {
			return err
		}
	}

	for mime := range o.Formats {
		if err := c.request(idSource, 0 /* offer */, stringArg(mime)); err != nil {
			return err
		}
	}

	if err := c.request(idManager, 1 /* get_data_device */, uint32Arg(idDevice), uint32Arg(idSeat)); err != nil {
		return err
	}
	if err := c.request(idDevice, 0 /* set_selection */, uint32Arg(idSource)); err != nil {
		return err
	}
	if err := c.request(idDisplay, 0 /* sync */, uint32Arg(idSyncOwned)); err != nil {
		return err
	}

	for {
		m, err := c.next()
		if err != nil {
			return err
		}
		m.closeFd()
		if m.object == idSyncOwned && m.opcode == 0 /* done */ {
			return nil
		}
	}
}

func (o *Owner) loop(c *conn) error {
	for {
		m, err := c.next()
		if err != nil {
			// The compositor closed the connection, nothing left to serve.
			return nil
		}
		if m.object != idSource {
			m.closeFd()
			continue
		}

		switch m.opcode {
		case 0: // send
			mime, _, _ := decodeString(m.payload)
			o.send(m.fd, mime)
		case 1: // cancelled
			m.closeFd()
			return nil
		default:
			m.closeFd()
		}
	}
}

func (o *Owner) send(fd int, mime string) {
	if fd < 0 {
		return
	}
	defer syscall.Close(fd) //nolint:errcheck

	data, ok := o.Formats[mime]
	if ok {
		syscall.Write(fd, data) //nolint:errcheck
	}
	if o.OnSend != nil {
		o.OnSend(mime, ok)
	}
}
