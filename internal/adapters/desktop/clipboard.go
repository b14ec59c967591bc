package desktop

import (
	"log"

	"github.com/atotto/clipboard"
)

// Clipboard copia el creator code al portapapeles del streamer.
type Clipboard struct {
	write func(string) error
}

func NewClipboard() *Clipboard {
	return &Clipboard{write: clipboard.WriteAll}
}

// Available es false cuando no hay xclip/xsel/wl-clipboard en el sistema.
func (c *Clipboard) Available() bool { return !clipboard.Unsupported }

func (c *Clipboard) WriteAll(text string) error {
	if err := c.write(text); err != nil {
		log.Printf("[desktop] clipboard: %v", err)
		return err
	}
	return nil
}
