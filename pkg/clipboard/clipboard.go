// Package clipboard carries the three representations of a copied selection:
// plain text for plain consumers, GFM under a custom format key, and the
// rendered HTML under the standard rich key.
//
// A Carrier is the per-event, multi-format data object. On Linux/Wayland the
// system clipboard is served by a background owner process so every format,
// including text/x-gfm, is available to pasting applications; elsewhere only
// plain text reaches the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

const (
	FormatPlain  = "text/plain"
	FormatMarkup = "text/x-gfm"
	FormatHTML   = "text/html"
)

// Formats holds the format keys used for each representation.
type Formats struct {
	Plain  string `yaml:"plain" json:"plain"`
	Markup string `yaml:"markup" json:"markup"`
	HTML   string `yaml:"html" json:"html"`
}

func DefaultFormats() Formats {
	return Formats{
		Plain:  FormatPlain,
		Markup: FormatMarkup,
		HTML:   FormatHTML,
	}
}

// Validate checks that every key is set and that no two representations
// share a key.
func (f Formats) Validate() error {
	keys := map[string]string{}
	for _, kv := range [][2]string{{"plain", f.Plain}, {"markup", f.Markup}, {"html", f.HTML}} {
		if kv[1] == "" {
			return fmt.Errorf("%s format key is empty", kv[0])
		}
		if other, ok := keys[kv[1]]; ok {
			return fmt.Errorf("%s and %s share format key %q", other, kv[0], kv[1])
		}
		keys[kv[1]] = kv[0]
	}
	return nil
}

// Carrier stores named representations for one copy or paste event.
type Carrier interface {
	SetData(format, data string) error
	GetData(format string) string
	Formats() []string
}

// MemoryCarrier is an in-memory Carrier.
type MemoryCarrier struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryCarrier() *MemoryCarrier {
	return &MemoryCarrier{data: make(map[string]string)}
}

// NewMemoryCarrierFrom returns a carrier pre-filled with data.
func NewMemoryCarrierFrom(data map[string]string) *MemoryCarrier {
	c := NewMemoryCarrier()
	for k, v := range data {
		c.data[k] = v
	}
	return c
}

func (c *MemoryCarrier) SetData(format, data string) error {
	if format == "" {
		return errors.New("empty format key")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[format] = data
	return nil
}

func (c *MemoryCarrier) GetData(format string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data[format]
}

// Formats lists the stored format keys in sorted order.
func (c *MemoryCarrier) Formats() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.data))
	for k := range c.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Map returns a copy of the stored data.
func (c *MemoryCarrier) Map() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}
