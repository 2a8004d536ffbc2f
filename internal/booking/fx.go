package booking

import (
	"github.com/pawsuite/barkbill/internal/booking/repository"
	"github.com/pawsuite/barkbill/internal/booking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
