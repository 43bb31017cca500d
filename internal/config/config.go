package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	OBA       OBAConfig
	OSM       OSMConfig
	Mapbox    MapboxConfig
	Cache     CacheConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// OBAConfig points at a OneBusAway-shaped REST API (base .../api/where/...).
type OBAConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

type OSMConfig struct {
	OverpassURL    string
	NominatimURL   string
	UserAgent      string
	MatchRadius    float64
	RequestTimeout time.Duration
}

type MapboxConfig struct {
	BaseURL        string
	AccessToken    string
	RequestTimeout time.Duration
}

type CacheConfig struct {
	Backend     string // "memory" or "redis"
	ArrivalsTTL time.Duration
	NearbyTTL   time.Duration
	VehiclesTTL time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type RateLimitConfig struct {
	Quota         int
	Window        time.Duration
	DebounceDelay time.Duration
}

type WorkerConfig struct {
	Enabled      bool
	PollInterval time.Duration
	RouteIDs     []string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A .env file is optional; plain environment variables suffice.
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		OBA: OBAConfig{
			BaseURL:        viper.GetString("OBA_BASE_URL"),
			APIKey:         viper.GetString("OBA_API_KEY"),
			RequestTimeout: time.Duration(viper.GetInt("OBA_REQUEST_TIMEOUT")) * time.Second,
		},
		OSM: OSMConfig{
			OverpassURL:    viper.GetString("OSM_OVERPASS_URL"),
			NominatimURL:   viper.GetString("OSM_NOMINATIM_URL"),
			UserAgent:      viper.GetString("OSM_USER_AGENT"),
			MatchRadius:    viper.GetFloat64("OSM_MATCH_RADIUS"),
			RequestTimeout: time.Duration(viper.GetInt("OSM_REQUEST_TIMEOUT")) * time.Second,
		},
		Mapbox: MapboxConfig{
			BaseURL:        viper.GetString("MAPBOX_BASE_URL"),
			AccessToken:    viper.GetString("MAPBOX_ACCESS_TOKEN"),
			RequestTimeout: time.Duration(viper.GetInt("MAPBOX_REQUEST_TIMEOUT")) * time.Second,
		},
		Cache: CacheConfig{
			Backend:     viper.GetString("CACHE_BACKEND"),
			ArrivalsTTL: time.Duration(viper.GetInt("CACHE_ARRIVALS_TTL")) * time.Second,
			NearbyTTL:   time.Duration(viper.GetInt("CACHE_NEARBY_TTL")) * time.Second,
			VehiclesTTL: time.Duration(viper.GetInt("CACHE_VEHICLES_TTL")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Quota:         viper.GetInt("RATE_LIMIT_QUOTA"),
			Window:        time.Duration(viper.GetInt("RATE_LIMIT_WINDOW")) * time.Second,
			DebounceDelay: time.Duration(viper.GetInt("RATE_LIMIT_DEBOUNCE_MS")) * time.Millisecond,
		},
		Worker: WorkerConfig{
			Enabled:      viper.GetBool("WORKER_ENABLED"),
			PollInterval: time.Duration(viper.GetInt("WORKER_POLL_INTERVAL")) * time.Second,
			RouteIDs:     parseRouteIDs(viper.GetString("WORKER_ROUTE_IDS")),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	// Set default values if not provided
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.OBA.BaseURL == "" {
		cfg.OBA.BaseURL = "https://api.pugetsound.onebusaway.org"
	}
	if cfg.OBA.RequestTimeout == 0 {
		cfg.OBA.RequestTimeout = 10 * time.Second
	}
	if cfg.OSM.OverpassURL == "" {
		cfg.OSM.OverpassURL = "https://overpass-api.de/api/interpreter"
	}
	if cfg.OSM.NominatimURL == "" {
		cfg.OSM.NominatimURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.OSM.UserAgent == "" {
		cfg.OSM.UserAgent = "transit-explorer/1.0"
	}
	if cfg.OSM.MatchRadius == 0 {
		cfg.OSM.MatchRadius = 150
	}
	if cfg.OSM.RequestTimeout == 0 {
		cfg.OSM.RequestTimeout = 10 * time.Second
	}
	if cfg.Mapbox.BaseURL == "" {
		cfg.Mapbox.BaseURL = "https://api.mapbox.com"
	}
	if cfg.Mapbox.RequestTimeout == 0 {
		cfg.Mapbox.RequestTimeout = 10 * time.Second
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.ArrivalsTTL == 0 {
		cfg.Cache.ArrivalsTTL = 15 * time.Minute
	}
	if cfg.Cache.NearbyTTL == 0 {
		cfg.Cache.NearbyTTL = 5 * time.Minute
	}
	if cfg.Cache.VehiclesTTL == 0 {
		cfg.Cache.VehiclesTTL = 30 * time.Second
	}
	if cfg.RateLimit.Quota == 0 {
		cfg.RateLimit.Quota = 60
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = time.Minute
	}
	if cfg.RateLimit.DebounceDelay == 0 {
		cfg.RateLimit.DebounceDelay = 300 * time.Millisecond
	}
	if cfg.Worker.PollInterval == 0 {
		cfg.Worker.PollInterval = 30 * time.Second
	}

	return cfg, nil
}

func parseRouteIDs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
