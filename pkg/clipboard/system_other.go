//go:build !linux

package clipboard

import atotto "github.com/atotto/clipboard"

const ServeCommand = "__clipboard-serve"

func systemMultiFormat() bool {
	return false
}

// WriteSystem copies the plain text of p. Other representations cannot be
// published on this platform.
func WriteSystem(p Payload, _ Formats) error {
	return atotto.WriteAll(p.PlainText)
}

// ServeSystem is not used on this platform.
func ServeSystem(ServeRequest) error {
	return nil
}
