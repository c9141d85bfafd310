package utility

import (
	"fmt"

	"github.com/levenlabs/go-lflag"

	"github.com/raterudder/energysim/pkg/types"
)

// Configured sets up the tariff selection based on flags.
func Configured() *Selection {
	plan := lflag.String("tariff-plan", "", "Named tariff plan to use instead of the site tariff (available: default, net_metering, no_export)")
	var override *types.Tariff
	lflag.JSON(&override, "tariff", override, `JSON tariff overriding the site and plan, e.g. {"importDollarsPerKWH":0.2,"exportDollarsPerKWH":0.05}`)

	sel := NewSelection(NewMap(), "", nil)

	lflag.Do(func() {
		if *plan != "" {
			if _, err := sel.plans.Plan(*plan); err != nil {
				panic(err.Error())
			}
		}
		if override != nil {
			if err := override.Validate(); err != nil {
				panic(fmt.Sprintf("invalid tariff: %v", err))
			}
		}
		sel.plan = *plan
		sel.override = override
	})

	return sel
}
