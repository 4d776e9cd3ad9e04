package config

import (
	"log"
	"regexp"
	"time"

	"github.com/iliyamo/reserve-my-spot/internal/booking"
)

// BookingConfig tunes the reservation core.
type BookingConfig struct {
	GraceWindow  time.Duration  // slack around a booking for check-in and verification
	SweepSpec    string         // cron spec for completing expired bookings
	CodeAttempts int            // random redraws per access code before giving up
	PlatePattern *regexp.Regexp // default registration format; nil uses the built-in one
	Location     *time.Location // zone in which startDate/startTime are interpreted
}

// LoadBookingConfig reads BOOKING_* settings.  Invalid values stop the
// process; missing ones use defaults.
func LoadBookingConfig() BookingConfig {
	cfg := BookingConfig{
		GraceWindow:  envDur("BOOKING_GRACE_WINDOW", 15*time.Minute),
		SweepSpec:    envStr("BOOKING_SWEEP_SPEC", "@every 1m"),
		CodeAttempts: envInt("ACCESS_CODE_MAX_ATTEMPTS", 10),
		Location:     time.UTC,
	}
	if cfg.GraceWindow < 0 {
		cfg.GraceWindow = 0
	}
	if p := envStr("PLATE_PATTERN", ""); p != "" {
		re, err := booking.CompilePlatePattern(p)
		if err != nil {
			log.Fatalf("invalid PLATE_PATTERN: %v", err)
		}
		cfg.PlatePattern = re
	}
	if tz := envStr("APP_TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Fatalf("invalid APP_TIMEZONE %q: %v", tz, err)
		}
		cfg.Location = loc
	}
	return cfg
}
