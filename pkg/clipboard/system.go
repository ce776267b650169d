package clipboard

import (
	atotto "github.com/atotto/clipboard"
)

// Capabilities reports what the clipboard carrier of a platform supports.
type Capabilities interface {
	// MultiFormat is true when several named representations can be stored
	// for one event.
	MultiFormat() bool
}

// CapabilityFunc adapts a function to Capabilities.
type CapabilityFunc func() bool

func (f CapabilityFunc) MultiFormat() bool { return f() }

var (
	Supported   Capabilities = CapabilityFunc(func() bool { return true })
	Unsupported Capabilities = CapabilityFunc(func() bool { return false })
)

// SystemCapabilities probes the system clipboard.
func SystemCapabilities() Capabilities {
	return CapabilityFunc(systemMultiFormat)
}

// ServeRequest is handed to the clipboard owner process on stdin.
type ServeRequest struct {
	Formats map[string]string `json:"formats"`
	// Plain names the plain text format, which is also offered under the
	// legacy text targets.
	Plain string `json:"plain"`
}

// NewServeRequest builds the owner request for p.
func NewServeRequest(p Payload, f Formats) ServeRequest {
	return ServeRequest{Formats: p.Map(f), Plain: f.Plain}
}

// plainAliases are the extra targets plain text is offered under.
var plainAliases = []string{"text/plain;charset=utf-8", "UTF8_STRING", "STRING"}

func (r ServeRequest) targets() map[string][]byte {
	out := make(map[string][]byte, len(r.Formats)+len(plainAliases))
	for k, v := range r.Formats {
		out[k] = []byte(v)
	}
	if plain, ok := r.Formats[r.Plain]; ok {
		for _, alias := range plainAliases {
			if _, taken := out[alias]; !taken {
				out[alias] = []byte(plain)
			}
		}
	}
	return out
}

// WriteSystemText copies plain text to the system clipboard, as a copy the
// platform handles itself would.
func WriteSystemText(text string) error {
	return atotto.WriteAll(text)
}

// ReadSystemText reads plain text from the system clipboard.
func ReadSystemText() (string, error) {
	return atotto.ReadAll()
}

// SystemCarrier collects representations in memory and publishes them to
// the system clipboard on Commit.
type SystemCarrier struct {
	*MemoryCarrier
	formats Formats
	write   func(Payload, Formats) error
}

func NewSystemCarrier(f Formats) *SystemCarrier {
	return &SystemCarrier{
		MemoryCarrier: NewMemoryCarrier(),
		formats:       f,
		write:         WriteSystem,
	}
}

// Commit writes the collected payload to the system clipboard.
func (c *SystemCarrier) Commit() error {
	return c.write(ReadPayload(c, c.formats), c.formats)
}
