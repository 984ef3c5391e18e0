// Package config holds the runtime settings. Values come from command-line
// flags with SCALO_* environment overrides; defaults reproduce the stock
// radio stream at 256x64.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/olivier-w/scalo/internal/wavelet"
)

// DefaultURL is the stream played when none is given.
const DefaultURL = "https://rd-trtradyo3.medya.trt.com.tr/master_128.m3u8"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is parsed by kong. Field tags carry the defaults.
type Config struct {
	URL string `arg:"" name:"url" help:"HLS media playlist URL" optional:"" default:"${default_url}" env:"SCALO_URL"`

	Width           int           `help:"Spectrogram columns (kernel length in samples)" default:"256" env:"SCALO_WIDTH"`
	Height          int           `help:"Spectrogram rows (frequency bands)" default:"64" env:"SCALO_HEIGHT"`
	MaxFrequency    float64       `name:"max-freq" help:"Frequency of the top band in Hz" default:"20000" env:"SCALO_MAX_FREQ"`
	NominalDuration float64       `name:"nominal-duration" help:"Seconds assumed for tracks without a duration" default:"6" env:"SCALO_NOMINAL_DURATION"`
	PollInterval    time.Duration `name:"poll" help:"Playlist poll interval" default:"1s" env:"SCALO_POLL"`
	Tick            time.Duration `help:"Render tick" default:"10ms" env:"SCALO_TICK"`
	Lookahead       int           `help:"Finished spectrograms allowed to wait for playback" default:"1" env:"SCALO_LOOKAHEAD"`
	Backend         string        `help:"FFT backend (exact, radix2)" default:"radix2" enum:"exact,radix2" env:"SCALO_FFT"`

	Volume  float64 `help:"Initial volume between 0 and 1" default:"1.0" env:"SCALO_VOLUME"`
	NoAudio bool    `name:"no-audio" help:"Follow the stream on a wall clock without an audio device" env:"SCALO_NO_AUDIO"`

	Headless  bool   `help:"Print rows to stdout instead of running the terminal UI" env:"SCALO_HEADLESS"`
	Snapshots string `help:"Write each spectrogram as a PNG into this directory" type:"path" env:"SCALO_SNAPSHOTS"`

	LogFile         string        `name:"log-file" help:"Log destination" default:"scalo.log" env:"SCALO_LOG_FILE"`
	LogLevel        string        `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info" enum:"debug,info,warn,error" env:"SCALO_LOG_LEVEL"`
	ShutdownTimeout time.Duration `name:"shutdown-timeout" help:"How long to wait for workers on exit" default:"5s" env:"SCALO_SHUTDOWN_TIMEOUT"`
}

// Vars supplies the interpolated defaults.
func Vars() kong.Vars {
	return kong.Vars{"default_url": DefaultURL}
}

// NewParser builds the kong parser for cfg. Extra options follow the
// defaults.
func NewParser(cfg *Config, options ...kong.Option) (*kong.Kong, error) {
	opts := append([]kong.Option{
		kong.Name("scalo"),
		kong.Description("Play a live HLS audio stream with a Morlet wavelet scalogram."),
		Vars(),
		kong.UsageOnError(),
	}, options...)
	return kong.New(cfg, opts...)
}

// Load parses args (without the program name) into a validated Config.
func Load(args []string, options ...kong.Option) (Config, error) {
	var cfg Config
	parser, err := NewParser(&cfg, options...)
	if err != nil {
		return Config{}, err
	}
	if _, err := parser.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("%w: url: %v", ErrInvalid, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: url %q must be absolute http(s)", ErrInvalid, c.URL)
	}

	switch {
	case c.Width <= 0:
		return fmt.Errorf("%w: width %d must be positive", ErrInvalid, c.Width)
	case c.Height <= 0:
		return fmt.Errorf("%w: height %d must be positive", ErrInvalid, c.Height)
	case c.MaxFrequency <= 0:
		return fmt.Errorf("%w: max-freq %g must be positive", ErrInvalid, c.MaxFrequency)
	case c.NominalDuration <= 0:
		return fmt.Errorf("%w: nominal-duration %g must be positive", ErrInvalid, c.NominalDuration)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll %s must be positive", ErrInvalid, c.PollInterval)
	case c.Tick <= 0:
		return fmt.Errorf("%w: tick %s must be positive", ErrInvalid, c.Tick)
	case c.Lookahead < 0:
		return fmt.Errorf("%w: lookahead %d must not be negative", ErrInvalid, c.Lookahead)
	case c.Volume < 0 || c.Volume > 1:
		return fmt.Errorf("%w: volume %g outside [0, 1]", ErrInvalid, c.Volume)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: shutdown-timeout %s must be positive", ErrInvalid, c.ShutdownTimeout)
	}

	if _, err := wavelet.ParseBackend(c.Backend); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if strings.TrimSpace(c.LogFile) == "" {
		return fmt.Errorf("%w: log-file must not be empty", ErrInvalid)
	}
	return nil
}

// BandSpacing is the frequency step between adjacent bands.
func (c Config) BandSpacing() float32 {
	return float32(c.MaxFrequency / float64(c.Width))
}

// FFTBackend returns the parsed backend. Call after Validate.
func (c Config) FFTBackend() wavelet.Backend {
	b, _ := wavelet.ParseBackend(c.Backend)
	return b
}
