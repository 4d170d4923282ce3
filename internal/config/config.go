package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env            string `yaml:"env" env:"ENV" env-default:"prod"`
	HTTPServer     `yaml:"http_server"`
	Storage        Storage           `yaml:"storage"`
	TimeZone       string            `yaml:"time_zone" env:"TIME_ZONE" env-default:"America/Sao_Paulo"`
	Serial         Serial            `yaml:"serial"`
	Checklist      Checklist         `yaml:"checklist"`
	Production     Production        `yaml:"production"`
	Users          map[string]string `yaml:"users"`
	AllowedOrigins []string          `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"http://localhost:5173"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout"  env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout"  env-default:"60s"`
}

// Storage selects the record store backend. DSN is used by mysql and postgres,
// Path by sqlite.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"STORAGE_DSN"`
	Path   string `yaml:"path" env:"STORAGE_PATH" env-default:"qc.db"`
}

type Serial struct {
	Length  int  `yaml:"length" env-default:"9"`
	Numeric bool `yaml:"numeric" env-default:"true"`
}

type Checklist struct {
	Items     []Item `yaml:"items"`
	PhotoItem string `yaml:"photo_item" env-default:"Etiqueta"`
}

type Item struct {
	Key                string   `yaml:"key"`
	RequireObservation bool     `yaml:"require_observation"`
	Options            []string `yaml:"options"`
}

type Production struct {
	// Targets maps "HH:MM" to the number of units expected from that time on.
	Targets       map[string]int `yaml:"targets"`
	BucketClosing string         `yaml:"bucket_closing" env:"BUCKET_CLOSING" env-default:"after_hour"`
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}

// Location resolves the business time zone used for day boundaries.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("config.Location: %w", err)
	}
	return loc, nil
}
