// Package config loads runtime configuration from compiled-in defaults, an
// optional config file, and DEBRIS_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/star/debrisview/internal/camera"
	"github.com/star/debrisview/internal/debris"
	"github.com/star/debrisview/internal/propagation"
	"github.com/star/debrisview/internal/stream"
	"github.com/star/debrisview/internal/viewer"
)

// EnvPrefix prefixes every environment override: clock.time_scale is read
// from DEBRIS_CLOCK_TIME_SCALE.
const EnvPrefix = "DEBRIS"

// ErrInvalid marks a configuration value that failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the fully resolved configuration.
type Config struct {
	TLEPath     string
	TimeScale   float64
	Start       time.Time // zero means wall-clock now
	Field       debris.Config
	Camera      camera.Settings
	Viewer      viewer.Config
	MetricsAddr string // empty disables the HTTP server
	Stream      stream.Config
	LogLevel    slog.Level
	LogFile     string // empty: stderr, or debrisview.log when stderr is a terminal
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tle.path", "assets/tle_sample.txt")
	v.SetDefault("propagation.workers", runtime.NumCPU())
	v.SetDefault("propagation.gravity", "wgs84")
	v.SetDefault("clock.time_scale", 1.0)
	v.SetDefault("clock.start", "")
	v.SetDefault("world.planet_radius_km", debris.EarthRadiusKm)
	v.SetDefault("world.frame", string(debris.FrameInertial))

	cam := camera.DefaultSettings()
	v.SetDefault("camera.radius_min", cam.RadiusRange.Min)
	v.SetDefault("camera.radius_max", cam.RadiusRange.Max)
	v.SetDefault("camera.pitch_limit", cam.PitchRange.Max)
	v.SetDefault("camera.rotate_speed", cam.RotateSpeed)
	v.SetDefault("camera.zoom_speed", cam.ZoomSpeed)

	vc := viewer.DefaultConfig()
	v.SetDefault("viewer.fps", vc.FPS)
	v.SetDefault("viewer.fov_deg", vc.FovYDeg)
	v.SetDefault("viewer.cell_aspect", vc.CellAspect)

	v.SetDefault("metrics.addr", "")

	sc := stream.DefaultConfig()
	v.SetDefault("stream.interval", sc.Interval)
	v.SetDefault("stream.keepalive", sc.KeepaliveInterval)
	v.SetDefault("stream.max_concurrent", sc.MaxConcurrent)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Load resolves configuration. path names an optional config file (any
// format viper reads); when empty, DEBRIS_CONFIG is consulted.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var errs []error
	invalid := func(key string, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalid, key, fmt.Sprintf(format, args...)))
	}

	cfg := Config{
		TLEPath:     v.GetString("tle.path"),
		TimeScale:   v.GetFloat64("clock.time_scale"),
		MetricsAddr: v.GetString("metrics.addr"),
		LogFile:     v.GetString("log.file"),
		Field: debris.Config{
			PlanetRadiusKm: v.GetFloat64("world.planet_radius_km"),
			Frame:          debris.Frame(strings.ToLower(v.GetString("world.frame"))),
			Propagation: propagation.PropConfig{
				Workers: v.GetInt("propagation.workers"),
				Gravity: strings.ToLower(v.GetString("propagation.gravity")),
			},
		},
		Viewer: viewer.Config{
			FPS:        v.GetInt("viewer.fps"),
			FovYDeg:    v.GetFloat64("viewer.fov_deg"),
			CellAspect: v.GetFloat64("viewer.cell_aspect"),
		},
	}

	cfg.Stream = stream.Config{
		MaxConcurrent:     v.GetInt("stream.max_concurrent"),
		Interval:          v.GetDuration("stream.interval"),
		KeepaliveInterval: v.GetDuration("stream.keepalive"),
	}

	pitch := float32(v.GetFloat64("camera.pitch_limit"))
	cfg.Camera = camera.Settings{
		RadiusRange: camera.Range{
			Min: float32(v.GetFloat64("camera.radius_min")),
			Max: float32(v.GetFloat64("camera.radius_max")),
		},
		PitchRange:  camera.Range{Min: -pitch, Max: pitch},
		RotateSpeed: float32(v.GetFloat64("camera.rotate_speed")),
		ZoomSpeed:   float32(v.GetFloat64("camera.zoom_speed")),
	}

	if cfg.TLEPath == "" {
		invalid("tle.path", "must not be empty")
	}
	if math.IsNaN(cfg.TimeScale) || math.IsInf(cfg.TimeScale, 0) {
		invalid("clock.time_scale", "%v is not finite", cfg.TimeScale)
	}
	if s := v.GetString("clock.start"); s != "" {
		start, err := time.Parse(time.RFC3339, s)
		if err != nil {
			invalid("clock.start", "%v", err)
		}
		cfg.Start = start.UTC()
	}
	if !(cfg.Field.PlanetRadiusKm > 0) {
		invalid("world.planet_radius_km", "%v must be positive", cfg.Field.PlanetRadiusKm)
	}
	switch cfg.Field.Frame {
	case debris.FrameInertial, debris.FrameEarthFixed:
	default:
		invalid("world.frame", "unknown frame %q", cfg.Field.Frame)
	}
	if cfg.Field.Propagation.Workers < 1 {
		invalid("propagation.workers", "%d must be at least 1", cfg.Field.Propagation.Workers)
	}
	switch cfg.Field.Propagation.Gravity {
	case "wgs72", "wgs84":
	default:
		invalid("propagation.gravity", "unknown model %q", cfg.Field.Propagation.Gravity)
	}
	if err := cfg.Camera.Validate(); err != nil {
		invalid("camera", "%v", err)
	}
	if err := cfg.Viewer.Validate(); err != nil {
		invalid("viewer", "%v", err)
	}

	if cfg.Stream.MaxConcurrent < 1 {
		invalid("stream.max_concurrent", "%d must be at least 1", cfg.Stream.MaxConcurrent)
	}
	if cfg.Stream.Interval < 10*time.Millisecond {
		invalid("stream.interval", "%v is shorter than 10ms", cfg.Stream.Interval)
	}
	if cfg.Stream.KeepaliveInterval <= 0 {
		invalid("stream.keepalive", "%v must be positive", cfg.Stream.KeepaliveInterval)
	}

	level, err := parseLevel(v.GetString("log.level"))
	if err != nil {
		invalid("log.level", "%v", err)
	}
	cfg.LogLevel = level

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// LogValue lists the settings worth recording at startup.
func (c Config) LogValue() slog.Value {
	start := "now"
	if !c.Start.IsZero() {
		start = c.Start.Format(time.RFC3339)
	}
	return slog.GroupValue(
		slog.String("tle_path", c.TLEPath),
		slog.Float64("time_scale", c.TimeScale),
		slog.String("start", start),
		slog.String("frame", string(c.Field.Frame)),
		slog.Int("workers", c.Field.Propagation.Workers),
		slog.String("gravity", c.Field.Propagation.Gravity),
		slog.Int("fps", c.Viewer.FPS),
		slog.String("metrics_addr", c.MetricsAddr),
		slog.Duration("stream_interval", c.Stream.Interval),
		slog.String("log_level", c.LogLevel.String()),
	)
}
