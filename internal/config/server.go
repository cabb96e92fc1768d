// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

// Package config carrega e valida a configuração YAML do servidor.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig representa a configuração completa do teamradar-server.
type ServerConfig struct {
	Server        ServerListen    `yaml:"server"`
	Database      DatabaseInfo    `yaml:"database"`
	Photos        PhotosConfig    `yaml:"photos"`
	Limits        LimitsConfig    `yaml:"limits"`
	Retention     RetentionConfig `yaml:"retention"`
	Logging       LoggingInfo     `yaml:"logging"`
	StatsInterval time.Duration   `yaml:"stats_interval"`
	WebUI         WebUIConfig     `yaml:"web_ui"`
}

// ServerListen contém o endereço de escuta do servidor.
type ServerListen struct {
	Listen    string `yaml:"listen"`
	DisplayIP string `yaml:"display_ip"` // informativo apenas
}

// DatabaseInfo contém o caminho do banco SQLite.
type DatabaseInfo struct {
	Path string `yaml:"path"`
}

// PhotosConfig seleciona o backend de fotos: diretório local ou S3.
type PhotosConfig struct {
	Backend string   `yaml:"backend"` // local|s3 (default: local)
	Path    string   `yaml:"path"`    // default: "./Photos"
	S3      S3Config `yaml:"s3"`
}

// S3Config configura o backend S3 de fotos.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"` // default: "photos/"
	Region string `yaml:"region"`
}

// LimitsConfig limita a fila e a taxa de escrita por conexão.
type LimitsConfig struct {
	WriteQueue int   `yaml:"write_queue"` // frames (default: 256)
	WriteRate  int64 `yaml:"write_rate"`  // bytes/s; 0 = sem throttle
}

// RetentionConfig agenda a poda do histórico de eventos.
type RetentionConfig struct {
	Schedule string        `yaml:"schedule"` // cron; "" desabilita
	MaxAge   time.Duration `yaml:"max_age"`  // default: 2160h (90 dias)
}

// LoggingInfo contém configurações de logging.
type LoggingInfo struct {
	Level  string `yaml:"level"`  // debug|info|warn|error (default: info)
	Format string `yaml:"format"` // json|text (default: json)
	File   string `yaml:"file"`   // "" = stdout apenas
}

// WebUIConfig configura o listener HTTP da API de observabilidade.
type WebUIConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Listen       string        `yaml:"listen"`        // default: "127.0.0.1:9848"
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 15s
	IdleTimeout  time.Duration `yaml:"idle_timeout"`  // default: 60s
	AllowOrigins []string      `yaml:"allow_origins"` // IP ou CIDR (deny-by-default)

	// Parsed é preenchido em validate(); não vem do YAML.
	ParsedCIDRs []*net.IPNet `yaml:"-"`
}

// LoadServerConfig lê e valida o arquivo YAML de configuração.
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading server config: %w", err)
	}

	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating server config: %w", err)
	}

	return &cfg, nil
}

// Default retorna a configuração com todos os defaults aplicados, usada
// quando nenhum arquivo é fornecido.
func Default() *ServerConfig {
	cfg := &ServerConfig{}
	cfg.validate()
	return cfg
}

func (c *ServerConfig) validate() error {
	if c.Server.Listen == "" {
		c.Server.Listen = ":12345"
	}
	if c.Database.Path == "" {
		c.Database.Path = "teamradar.db"
	}

	if c.Photos.Backend == "" {
		c.Photos.Backend = "local"
	}
	c.Photos.Backend = strings.ToLower(strings.TrimSpace(c.Photos.Backend))
	if c.Photos.Backend != "local" && c.Photos.Backend != "s3" {
		return fmt.Errorf("photos.backend must be local or s3, got %q", c.Photos.Backend)
	}
	if c.Photos.Path == "" {
		c.Photos.Path = "./Photos"
	}
	if c.Photos.Backend == "s3" {
		if c.Photos.S3.Bucket == "" {
			return fmt.Errorf("photos.s3.bucket is required when photos.backend is s3")
		}
		if c.Photos.S3.Prefix == "" {
			c.Photos.S3.Prefix = "photos/"
		}
	}

	if c.Limits.WriteQueue <= 0 {
		c.Limits.WriteQueue = 256
	}
	if c.Limits.WriteRate < 0 {
		return fmt.Errorf("limits.write_rate must be >= 0, got %d", c.Limits.WriteRate)
	}

	if c.Retention.Schedule != "" && c.Retention.MaxAge <= 0 {
		c.Retention.MaxAge = 2160 * time.Hour
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.StatsInterval <= 0 {
		c.StatsInterval = 15 * time.Second
	}

	// Web UI defaults e validação
	if c.WebUI.Enabled {
		if c.WebUI.Listen == "" {
			c.WebUI.Listen = "127.0.0.1:9848"
		}
		if c.WebUI.ReadTimeout <= 0 {
			c.WebUI.ReadTimeout = 5 * time.Second
		}
		if c.WebUI.WriteTimeout <= 0 {
			c.WebUI.WriteTimeout = 15 * time.Second
		}
		if c.WebUI.IdleTimeout <= 0 {
			c.WebUI.IdleTimeout = 60 * time.Second
		}
		if len(c.WebUI.AllowOrigins) == 0 {
			return fmt.Errorf("web_ui.allow_origins is required when web_ui is enabled (deny-by-default)")
		}
		for _, origin := range c.WebUI.AllowOrigins {
			_, cidr, err := net.ParseCIDR(origin)
			if err != nil {
				// Tenta como IP único → converte para /32 ou /128
				ip := net.ParseIP(strings.TrimSpace(origin))
				if ip == nil {
					return fmt.Errorf("web_ui.allow_origins: %q is not a valid IP or CIDR", origin)
				}
				if ip.To4() != nil {
					_, cidr, _ = net.ParseCIDR(ip.String() + "/32")
				} else {
					_, cidr, _ = net.ParseCIDR(ip.String() + "/128")
				}
			}
			c.WebUI.ParsedCIDRs = append(c.WebUI.ParsedCIDRs, cidr)
		}
	}

	return nil
}
