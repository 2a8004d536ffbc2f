package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DaycareRates holds per-dog daily rates in cents for one daycare block.
type DaycareRates struct {
	Immediate int64 `mapstructure:"immediate"`
	Prepay1_3 int64 `mapstructure:"prepay1_3"`
	Prepay4P  int64 `mapstructure:"prepay4p"`
}

// BoardingRates holds per-dog nightly rates in cents keyed by the
// prior-month night count tier.
type BoardingRates struct {
	Base   int64 `mapstructure:"base"`
	Tier4  int64 `mapstructure:"tier4"`
	Tier10 int64 `mapstructure:"tier10"`
	Tier16 int64 `mapstructure:"tier16"`
}

// CapacityCaps are the per-day admission limits.
type CapacityCaps struct {
	Total     int `mapstructure:"total"`
	Daycare   int `mapstructure:"daycare"`
	Boarding  int `mapstructure:"boarding"`
	Emergency int `mapstructure:"emergency"`
}

type RateConfig struct {
	DaycareHalf    DaycareRates  `mapstructure:"daycareHalf"`
	DaycareFull    DaycareRates  `mapstructure:"daycareFull"`
	AfterHoursFlat int64         `mapstructure:"afterHoursFlat"`
	Boarding       BoardingRates `mapstructure:"boarding"`
	// LastNightPercent is the pickup surcharge applied when no boarding
	// booking exists on the next calendar day. 150 means 1.5x.
	LastNightPercent int64        `mapstructure:"lastNightPercent"`
	Caps             CapacityCaps `mapstructure:"caps"`
}

func DefaultRateConfig() RateConfig {
	return RateConfig{
		DaycareHalf:      DaycareRates{Immediate: 5000, Prepay1_3: 4500, Prepay4P: 4000},
		DaycareFull:      DaycareRates{Immediate: 6000, Prepay1_3: 5000, Prepay4P: 4500},
		AfterHoursFlat:   9000,
		Boarding:         BoardingRates{Base: 9000, Tier4: 8000, Tier10: 7500, Tier16: 6500},
		LastNightPercent: 150,
		Caps:             CapacityCaps{Total: 70, Daycare: 40, Boarding: 20, Emergency: 10},
	}
}

// RateConfigHolder serves the current rate table and hot-reloads it when the
// rates file changes. Readers always see a complete, validated snapshot.
type RateConfigHolder struct {
	current atomic.Value // holds RateConfig
}

func NewRateConfigHolder() (*RateConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("rates")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/barkbill/config") // Volume-mounted config
	v.AddConfigPath("/etc/barkbill")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("BARKBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg := DefaultRateConfig()
	if fileFound {
		if err := v.UnmarshalKey("rates", &cfg); err != nil {
			return nil, err
		}
		if err := validateRateConfig(cfg); err != nil {
			return nil, err
		}
	}

	holder := &RateConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultRateConfig()
		if err := v.UnmarshalKey("rates", &updated); err != nil {
			log.Printf("[rate-config] reload failed: %v", err)
			return
		}
		if err := validateRateConfig(updated); err != nil {
			log.Printf("[rate-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[rate-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticRateHolder pins a fixed rate table, bypassing file discovery.
func NewStaticRateHolder(cfg RateConfig) *RateConfigHolder {
	holder := &RateConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *RateConfigHolder) Get() RateConfig {
	return h.current.Load().(RateConfig)
}

func validateRateConfig(cfg RateConfig) error {
	if err := validateDaycare("daycareHalf", cfg.DaycareHalf); err != nil {
		return err
	}
	if err := validateDaycare("daycareFull", cfg.DaycareFull); err != nil {
		return err
	}
	if cfg.AfterHoursFlat <= 0 {
		return errors.New("rates.afterHoursFlat must be positive")
	}
	b := cfg.Boarding
	if b.Base <= 0 || b.Tier4 <= 0 || b.Tier10 <= 0 || b.Tier16 <= 0 {
		return errors.New("rates.boarding rates must be positive")
	}
	// More prior-month nights may never cost more per night.
	if !(b.Base > b.Tier4 && b.Tier4 > b.Tier10 && b.Tier10 > b.Tier16) {
		return errors.New("rates.boarding tiers must strictly decrease")
	}
	if cfg.LastNightPercent < 100 {
		return errors.New("rates.lastNightPercent must be >= 100")
	}
	c := cfg.Caps
	if c.Total < 0 || c.Daycare < 0 || c.Boarding < 0 || c.Emergency < 0 {
		return errors.New("rates.caps must be non-negative")
	}
	return nil
}

func validateDaycare(name string, r DaycareRates) error {
	if r.Immediate <= 0 || r.Prepay1_3 <= 0 || r.Prepay4P <= 0 {
		return errors.New("rates." + name + " rates must be positive")
	}
	// More prepaid days per week may never cost more per day.
	if !(r.Immediate > r.Prepay1_3 && r.Prepay1_3 > r.Prepay4P) {
		return errors.New("rates." + name + " tiers must strictly decrease")
	}
	return nil
}
