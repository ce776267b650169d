package clipboard

import (
	"errors"
	"fmt"

	"gfmclip/pkg/logger"
)

// Payload is the bundle written for one copy.
type Payload struct {
	PlainText string `json:"plain_text" yaml:"plain_text"`
	Markup    string `json:"markup" yaml:"markup"`
	HTML      string `json:"html" yaml:"html"`
}

// WritePayload stores the three representations of p in c: plain text,
// then markup, then HTML. handled is true whenever the markup write
// succeeded, even if another representation failed; those failures are
// logged and returned joined in err.
func WritePayload(c Carrier, f Formats, p Payload) (handled bool, err error) {
	if c == nil {
		return false, errors.New("no clipboard carrier")
	}

	var errs []error
	write := func(format, data string) bool {
		if werr := c.SetData(format, data); werr != nil {
			logger.Warn().Err(werr).Str("format", format).Msg("clipboard representation not written")
			errs = append(errs, fmt.Errorf("write %s: %w", format, werr))
			return false
		}
		return true
	}

	write(f.Plain, p.PlainText)
	handled = write(f.Markup, p.Markup)
	write(f.HTML, p.HTML)

	return handled, errors.Join(errs...)
}

// ReadPayload returns the representations stored in c.
func ReadPayload(c Carrier, f Formats) Payload {
	if c == nil {
		return Payload{}
	}
	return Payload{
		PlainText: c.GetData(f.Plain),
		Markup:    c.GetData(f.Markup),
		HTML:      c.GetData(f.HTML),
	}
}

// Map returns the payload keyed by format.
func (p Payload) Map(f Formats) map[string]string {
	return map[string]string{
		f.Plain:  p.PlainText,
		f.Markup: p.Markup,
		f.HTML:   p.HTML,
	}
}
