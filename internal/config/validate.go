package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var validate = newValidator()

// ScheduleParser accepts five-field cron expressions and descriptors such as
// "@daily". The scheduler uses the same parser.
var ScheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NextRun returns the first activation of spec after now.
func NextRun(spec string, now time.Time) (time.Time, error) {
	sched, err := ScheduleParser.Parse(spec)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(now), nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report yaml keys instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct constraints, mode-dependent requirements, the cron
// schedule and that the accounts string parses.
func Validate(cfg *Config) error {
	var errs []error

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating config: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Errorf("%s: failed %q check", trimRoot(fe.Namespace()), fe.Tag()))
		}
	}

	if cfg.Mode == ModeAPI && len(cfg.Checkin.Endpoints) == 0 {
		errs = append(errs, errors.New("checkin.endpoints: required when mode is api"))
	}

	if cfg.Schedule != "" {
		if _, err := ScheduleParser.Parse(cfg.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("schedule: %w", err))
		}
	}

	if cfg.Accounts != "" {
		if _, err := cfg.Credentials(); err != nil {
			errs = append(errs, fmt.Errorf("accounts: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func trimRoot(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}
