package config

import (
	"fmt"
	"os"
	"time"

	"github.com/a8m/envsubst"
	"github.com/goccy/go-yaml"
)

const (
	ModeBrowser = "browser"
	ModeAPI     = "api"
)

type Config struct {
	Mode     string  `yaml:"mode" validate:"oneof=browser api"`
	Accounts string  `yaml:"accounts" validate:"required"`
	Site     Site    `yaml:"site"`
	Browser  Browser `yaml:"browser"`
	Timing   Timing  `yaml:"timing"`
	Checkin  Checkin `yaml:"checkin"`
	Notify   Notify  `yaml:"notify"`
	Schedule string  `yaml:"schedule"`
}

type Site struct {
	LoginURL     string `yaml:"login_url" validate:"required,url"`
	LoginPath    string `yaml:"login_path" validate:"required"`
	CheckinURL   string `yaml:"checkin_url" validate:"required,url"`
	DashboardURL string `yaml:"dashboard_url" validate:"required,url"`
}

type Browser struct {
	Headless   bool   `yaml:"headless"`
	Bin        string `yaml:"bin"`
	WindowSize string `yaml:"window_size"`
	// CI is set from the environment, never from the file.
	CI bool `yaml:"-"`
}

type Timing struct {
	Settle         Duration `yaml:"settle" validate:"gte=0"`
	CheckinSettle  Duration `yaml:"checkin_settle" validate:"gte=0"`
	ConfirmSettle  Duration `yaml:"confirm_settle" validate:"gte=0"`
	ElementTimeout Duration `yaml:"element_timeout" validate:"gt=0"`
	LoginTimeout   Duration `yaml:"login_timeout" validate:"gt=0"`
	AccountDelay   Duration `yaml:"account_delay" validate:"gte=0"`
	RequestTimeout Duration `yaml:"request_timeout" validate:"gt=0"`
	NotifyTimeout  Duration `yaml:"notify_timeout" validate:"gt=0"`
}

type Checkin struct {
	Labels         []string `yaml:"labels" validate:"min=1,dive,required"`
	AlreadyMarkers []string `yaml:"already_markers" validate:"dive,required"`
	SuccessMarkers []string `yaml:"success_markers" validate:"min=1,dive,required"`
	Endpoints      []string `yaml:"endpoints" validate:"dive,url"`
}

type Notify struct {
	Title    string             `yaml:"title"`
	Template string             `yaml:"template"`
	Services map[string]Service `yaml:"services" validate:"dive"`
}

type Service struct {
	URL    string            `yaml:"url" validate:"required"`
	Params map[string]string `yaml:"params"`
}

// Duration accepts Go duration strings ("5s", "1m30s") in YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return fmt.Errorf("duration: must be a string like \"5s\"")
	}
	parsed, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("duration %q: %w", str, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the configuration used when no file is present. Values
// mirror the public leaflow.net site.
func Default() *Config {
	return &Config{
		Mode: ModeBrowser,
		Site: Site{
			LoginURL:     "https://leaflow.net/login",
			LoginPath:    "/login",
			CheckinURL:   "https://checkin.leaflow.net",
			DashboardURL: "https://leaflow.net/dashboard",
		},
		Browser: Browser{
			WindowSize: "1920,1080",
		},
		Timing: Timing{
			Settle:         Duration(5 * time.Second),
			CheckinSettle:  Duration(10 * time.Second),
			ConfirmSettle:  Duration(5 * time.Second),
			ElementTimeout: Duration(5 * time.Second),
			LoginTimeout:   Duration(20 * time.Second),
			AccountDelay:   Duration(5 * time.Second),
			RequestTimeout: Duration(15 * time.Second),
			NotifyTimeout:  Duration(10 * time.Second),
		},
		Checkin: Checkin{
			Labels:         []string{"签到"},
			AlreadyMarkers: []string{"已签到", "已经签到", "already checked in"},
			SuccessMarkers: []string{"签到成功", "成功"},
			Endpoints: []string{
				"https://checkin.leaflow.net/api/checkin",
				"https://checkin.leaflow.net/checkin",
				"https://leaflow.net/api/checkin",
			},
		},
		Notify: Notify{
			Title: "Leaflow 签到",
		},
		Schedule: "0 9 * * *",
	}
}

// Load reads a YAML file, expands ${VAR} references and overlays the result
// onto Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	data, err = envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}
