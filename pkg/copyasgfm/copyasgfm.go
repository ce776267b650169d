// Package copyasgfm intercepts copy and paste on a surface. Copying from
// rendered markdown or from a code view puts GFM on the clipboard next to
// the plain and HTML renderings; pasting into a GFM input inserts the GFM
// unless the caret sits inside a code span.
package copyasgfm

import (
	"fmt"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"gfmclip/pkg/clipboard"
	"gfmclip/pkg/config"
	"gfmclip/pkg/errors"
	"gfmclip/pkg/gfm"
	"gfmclip/pkg/logger"
	"gfmclip/pkg/nodes"
	"gfmclip/pkg/paste"
	"gfmclip/pkg/selection"
	"gfmclip/pkg/surface"
)

// Mode selects how a selection is normalized before serialization.
type Mode string

const (
	ModeStructured Mode = "structured"
	ModeCode       Mode = "code"
)

// ParseMode maps a flag value to a Mode. "auto" and "" yield "".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "auto":
		return "", nil
	case string(ModeStructured):
		return ModeStructured, nil
	case string(ModeCode):
		return ModeCode, nil
	default:
		return "", errors.ValidationError(fmt.Sprintf("unknown copy mode %q (use auto, structured or code)", s))
	}
}

// Triggers are the selectors handlers are bound to.
type Triggers struct {
	Structured  string
	Code        string
	PasteTarget string
}

// Options configure a Component.
type Options struct {
	Triggers Triggers
	Formats  clipboard.Formats
	// Sanitizer, when set, cleans the text/html representation.
	Sanitizer *bluemonday.Policy
}

// Component binds the copy and paste handlers to a surface.
type Component struct {
	surface    *surface.Surface
	serializer *gfm.Serializer
	normalizer *selection.Normalizer
	opts       Options
	enabled    bool

	mu   sync.Mutex
	offs []func()
}

// New probes caps once. Without a multi-format carrier Attach binds nothing
// and every event keeps its default behavior.
func New(s *surface.Surface, caps clipboard.Capabilities, ser *gfm.Serializer, norm *selection.Normalizer, opts Options) *Component {
	if opts.Formats == (clipboard.Formats{}) {
		opts.Formats = clipboard.DefaultFormats()
	}
	return &Component{
		surface:    s,
		serializer: ser,
		normalizer: norm,
		opts:       opts,
		enabled:    caps != nil && caps.MultiFormat(),
	}
}

// FromConfig builds the serializer, normalizer and options from cfg.
func FromConfig(s *surface.Surface, caps clipboard.Capabilities, cfg *config.Config) (*Component, error) {
	norm, err := selection.NewNormalizer(cfg.Selectors.Selection())
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "invalid selection selectors", err)
	}
	ser := gfm.NewSerializer(gfm.WithRules(gfm.BuiltinRules(cfg.Selectors.Classes())))

	opts := Options{
		Triggers: Triggers{
			Structured:  cfg.Selectors.StructuredContent,
			Code:        cfg.Selectors.CodeDisplay,
			PasteTarget: cfg.Selectors.PasteTarget,
		},
		Formats: cfg.Formats,
	}
	if cfg.SanitizeHTML {
		opts.Sanitizer = clipboard.NewSanitizer()
	}
	return New(s, caps, ser, norm, opts), nil
}

// Enabled reports whether the capability probe passed.
func (c *Component) Enabled() bool {
	return c.enabled
}

// Attach binds the handlers. Attaching twice is a no-op.
func (c *Component) Attach() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		logger.Debug().Str("reason", errors.ErrUnsupportedEnvironment.Error()).Msg("copy as GFM disabled")
		return nil
	}
	if len(c.offs) > 0 {
		return nil
	}

	bindings := []struct {
		typ      surface.EventType
		selector string
		handler  surface.Handler
	}{
		{surface.Copy, c.opts.Triggers.Structured, c.copyStructured},
		{surface.Copy, c.opts.Triggers.Code, c.copyCode},
		{surface.Paste, c.opts.Triggers.PasteTarget, c.paste},
	}
	for _, b := range bindings {
		if b.selector == "" {
			continue
		}
		off, err := c.surface.On(b.typ, b.selector, b.handler)
		if err != nil {
			c.detachLocked()
			return fmt.Errorf("bind %s on %q: %w", b.typ, b.selector, err)
		}
		c.offs = append(c.offs, off)
	}
	return nil
}

// Detach removes every binding made by Attach.
func (c *Component) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detachLocked()
}

func (c *Component) detachLocked() {
	for _, off := range c.offs {
		off()
	}
	c.offs = nil
}

func (c *Component) copyStructured(e *surface.Event) error {
	return c.copy(e, ModeStructured)
}

func (c *Component) copyCode(e *surface.Event) error {
	return c.copy(e, ModeCode)
}

func (c *Component) copy(e *surface.Event, mode Mode) error {
	if e.Selection == nil {
		return errors.ErrEmptySelection
	}
	target := e.CurrentTarget
	if target == nil {
		target = e.Target
	}
	if err := c.CopyFragment(e.Clipboard, e.Selection.Fragment(), target, mode); err != nil {
		return err
	}
	e.PreventDefault()
	e.StopPropagation()
	return nil
}

// CopyFragment transforms fragment and writes the payload to carrier. A nil
// error means the copy was handled; partial write failures are only logged.
func (c *Component) CopyFragment(carrier clipboard.Carrier, fragment, target *html.Node, mode Mode) error {
	if carrier == nil {
		return errors.ErrUnsupportedEnvironment
	}
	if selection.IsEmpty(fragment) {
		return errors.ErrEmptySelection
	}

	p, err := c.Transform(fragment, target, mode)
	if err != nil {
		return err
	}

	if handled, err := clipboard.WritePayload(carrier, c.opts.Formats, p); !handled {
		return errors.ClipboardError(err)
	}
	return nil
}

// Transform normalizes fragment for mode and builds the payload. fragment
// is consumed. target is the element the copy came from and decides the
// diff side in code mode.
func (c *Component) Transform(fragment, target *html.Node, mode Mode) (clipboard.Payload, error) {
	var root *html.Node
	switch mode {
	case ModeCode:
		root = c.normalizer.NormalizeCode(fragment, target)
	default:
		root = c.normalizer.NormalizeStructured(fragment)
	}

	markup, err := c.serializer.Serialize(root)
	if err != nil {
		return clipboard.Payload{}, errors.NewWithError(errors.ExitCodeGeneral, errors.ErrMsgSerialize, err)
	}
	rendered, err := nodes.Render(root)
	if err != nil {
		return clipboard.Payload{}, errors.NewWithError(errors.ExitCodeGeneral, errors.ErrMsgSerialize, err)
	}

	return clipboard.Payload{
		PlainText: nodes.TextContent(root),
		Markup:    markup,
		HTML:      clipboard.Sanitize(c.opts.Sanitizer, rendered),
	}, nil
}

// DetectMode picks the mode for a copy from target: code when an ancestor
// matches the code trigger, structured otherwise.
func (c *Component) DetectMode(target *html.Node) (Mode, error) {
	if target == nil || c.opts.Triggers.Code == "" {
		return ModeStructured, nil
	}
	m, err := nodes.Compile(c.opts.Triggers.Code)
	if err != nil {
		return "", err
	}
	for n := target; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && m.Match(n) {
			return ModeCode, nil
		}
	}
	return ModeStructured, nil
}

// Convert serializes a whole HTML snippet.
func (c *Component) Convert(src string) (string, error) {
	return c.serializer.SerializeHTML(src)
}

func (c *Component) paste(e *surface.Event) error {
	if err := c.PasteInto(e.Clipboard, e.Editable); err != nil {
		return err
	}
	e.PreventDefault()
	return nil
}

// PasteInto inserts the resolved representation of carrier into ed. A skip
// error means the paste was left to the platform.
func (c *Component) PasteInto(carrier clipboard.Carrier, ed paste.Editable) error {
	if carrier == nil {
		return errors.ErrUnsupportedEnvironment
	}
	markup := carrier.GetData(c.opts.Formats.Markup)
	if markup == "" {
		return errors.ErrNoStructuredPayload
	}
	if ed == nil {
		return errors.ErrNoEditable
	}

	if !paste.Into(ed, carrier.GetData(c.opts.Formats.Plain), markup) {
		return errors.ErrNoStructuredPayload
	}
	return nil
}

// Formats returns the format keys payloads are written under.
func (c *Component) Formats() clipboard.Formats {
	return c.opts.Formats
}
