package config

import "time"

// Config is the root configuration for the signaling server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Socket   SocketConfig   `yaml:"socket"`
}

// ServerConfig controls the HTTP listeners.
type ServerConfig struct {
	Host        string    `yaml:"host"`
	Port        string    `yaml:"port"`
	CORSOrigins []string  `yaml:"cors_origins"`
	TLS         TLSConfig `yaml:"tls"`
}

// TLSConfig controls the optional HTTPS listener. When SelfSigned is set
// and the cert/key files are absent, the server generates them at startup.
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Port       string `yaml:"port"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	SelfSigned bool   `yaml:"self_signed"`
}

// DatabaseConfig holds the postgres pool settings for the row store
// behind recordings and users.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MinConns int    `yaml:"min_conns"`
	MaxConns int    `yaml:"max_conns"`
}

// AuthConfig seeds the default dashboard account and controls token issue.
type AuthConfig struct {
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// SocketConfig bounds a single websocket connection.
type SocketConfig struct {
	ReadLimit int64 `yaml:"read_limit"`
}
