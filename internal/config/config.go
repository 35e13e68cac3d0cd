package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
}

type Server struct {
	Addr       string `yaml:"addr"`
	SessionTTL string `yaml:"session_ttl"`
}

type Storage struct {
	DBPath    string `yaml:"db_path"`
	UploadDir string `yaml:"upload_dir"`
}

func Default() *Config {
	return &Config{
		Server:  Server{Addr: ":8080", SessionTTL: "24h"},
		Storage: Storage{DBPath: "./data/pixelgram.db", UploadDir: "./data/uploads"},
	}
}

// Load reads the YAML file at path, falling back to defaults for any field
// the file leaves empty. A missing file is not an error.
func Load(path string) (*Config, error) {
	config := Default()

	file, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(file, config); err != nil {
		return nil, err
	}

	if p := os.Getenv("PORT"); p != "" {
		config.Server.Addr = ":" + p
	}
	return config, nil
}

func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
