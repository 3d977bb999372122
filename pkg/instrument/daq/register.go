package daq

import (
	"github.com/benchkit/benchkit/pkg/instrument"
)

func init() {
	// Register DAQ variant in global registry
	instrument.MustRegister(instrument.Variant{
		Name:        Name,
		Description: "Arduino based data acquisition board",
		MatchParams: MatchParams(),
		Controls:    Controls(),
		Open:        open,
	})
}
