package extract

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/time/rate"

	"github.com/rhythmatician/lodiffusion/heightmap"
	"github.com/rhythmatician/lodiffusion/region"
)

// Config tunes extraction. Fields map to keys of a TOML file.
type Config struct {
	// Largest accepted compressed chunk, in bytes.
	MaxPayloadSize int `toml:"max-payload-size"`
	// Largest accepted decompressed chunk, in bytes.
	MaxNBTSize int `toml:"max-nbt-size"`
	// Heightmap types in order of preference.
	HeightmapKeys []string `toml:"heightmap-keys"`
	// Record per-call timings.
	Instrument bool `toml:"instrument"`

	// Throttles how fast tooling opens regions. Extraction itself never waits on it.
	ReadLimiter Limiter `toml:"read-limiter"`
}

// Limiter allows N events every Every. A zero Every means unlimited.
type Limiter struct {
	Every duration `toml:"every"`
	N     int      `toml:"n"`
}

func (l *Limiter) Limiter() *rate.Limiter {
	if l.Every.Duration <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	n := l.N
	if n <= 0 {
		n = 1
	}
	return rate.NewLimiter(rate.Every(l.Every.Duration), n)
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}

func DefaultConfig() Config {
	return Config{
		MaxPayloadSize: region.DefaultMaxPayload,
		MaxNBTSize:     region.DefaultMaxDecompressed,
		HeightmapKeys:  append([]string(nil), heightmap.DefaultKeys...),
	}
}

// ReadConfig loads a TOML file over DefaultConfig. Unknown keys are an error.
func ReadConfig(path string) (Config, error) {
	c := DefaultConfig()
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		var err errUnknownConfig
		for _, key := range undecoded {
			err = append(err, key.String())
		}
		return Config{}, err
	}
	if len(c.HeightmapKeys) == 0 {
		c.HeightmapKeys = append([]string(nil), heightmap.DefaultKeys...)
	}
	return c, nil
}

type errUnknownConfig []string

func (e errUnknownConfig) Error() string {
	return "unknown config keys: [" + strings.Join(e, ", ") + "]"
}
