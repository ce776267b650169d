//go:build linux

package clipboard

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"syscall"

	atotto "github.com/atotto/clipboard"

	"gfmclip/pkg/clipboard/internal/wayland"
	"gfmclip/pkg/logger"
)

// ServeCommand is the hidden subcommand that runs the clipboard owner.
const ServeCommand = "__clipboard-serve"

func systemMultiFormat() bool {
	return wayland.Available()
}

// WriteSystem publishes p to the system clipboard. On Wayland a detached
// owner process serves every format; on X11 only plain text is written.
func WriteSystem(p Payload, f Formats) error {
	if !wayland.Available() {
		return atotto.WriteAll(p.PlainText)
	}
	return spawnOwner(NewServeRequest(p, f))
}

func spawnOwner(req ServeRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	cmd := exec.Command(os.Args[0], ServeCommand)
	cmd.Stdin = bytes.NewReader(body)
	// A new session keeps the owner alive after this process exits.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	logger.Debug().Int("pid", cmd.Process.Pid).Int("formats", len(req.Formats)).Msg("clipboard owner started")
	return nil
}

// ServeSystem owns the Wayland selection and blocks until another client
// replaces it.
func ServeSystem(req ServeRequest) error {
	owner := &wayland.Owner{
		Formats: req.targets(),
		OnSend: func(mime string, served bool) {
			logger.Debug().Str("mime", mime).Bool("served", served).Msg("clipboard paste request")
		},
	}
	return owner.Serve()
}
