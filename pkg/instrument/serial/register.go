package serial

import (
	"context"

	"github.com/benchkit/benchkit/pkg/instrument"
)

func init() {
	// Register serial variant in global registry
	instrument.MustRegister(instrument.Variant{
		Name:        Name,
		Description: "line-terminated commands over a serial port",
		Controls:    Controls(),
		Open: func(ctx context.Context, params instrument.Params) (instrument.Instrument, error) {
			inst, err := OpenParams(ctx, params, nil)
			if err != nil {
				return nil, err
			}
			return inst, nil
		},
	})
}
