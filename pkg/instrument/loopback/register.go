package loopback

import (
	"github.com/benchkit/benchkit/pkg/instrument"
)

func init() {
	// Register loopback variant in global registry
	instrument.MustRegister(instrument.Variant{
		Name:        Name,
		Description: "echoes every command back; for wiring checks and dry runs",
		Controls:    controls(),
		Open:        open,
	})
}
