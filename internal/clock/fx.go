package clock

import (
	"time"

	"github.com/pawsuite/barkbill/internal/config"
	"go.uber.org/fx"
)

func NewFromConfig(cfg config.Config) (Clock, error) {
	zone, err := time.LoadLocation(cfg.BusinessZone)
	if err != nil {
		return nil, err
	}
	return NewSystem(zone), nil
}

var Module = fx.Module("clock",
	fx.Provide(NewFromConfig),
)
