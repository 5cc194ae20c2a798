// Package config provides configuration management for imagedeck.
// It handles loading and validating configuration from YAML/JSON files and environment variables.
package config

import "time"

// AppConfig represents the complete application configuration
type AppConfig struct {
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Backend BackendConfig `koanf:"backend"`
	Flags   FlagsConfig   `koanf:"flags"`
	DLM     DLMConfig     `koanf:"dlm"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr       string        `koanf:"listen_addr"`
	CertFile         string        `koanf:"cert_file"`
	KeyFile          string        `koanf:"key_file"`
	ReadTimeout      time.Duration `koanf:"read_timeout"`
	WriteTimeout     time.Duration `koanf:"write_timeout"`
	StorageOpTimeout time.Duration `koanf:"storage_op_timeout"`
	UploadRateLimit  float64       `koanf:"upload_rate_limit"` // upload URLs issued per second
	UploadRateBurst  int           `koanf:"upload_rate_burst"`
	AllowedOrigins   []string      `koanf:"allowed_origins"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// BackendConfig holds the configuration of both storage backends
type BackendConfig struct {
	AWS      AWSConfig      `koanf:"aws"`
	Firebase FirebaseConfig `koanf:"firebase"`
}

// AWSConfig configures the DynamoDB + S3 backend
type AWSConfig struct {
	Region       string `koanf:"region"`
	AccessKey    string `koanf:"access_key"`
	SecretKey    string `koanf:"secret_key"`
	BucketName   string `koanf:"bucket_name"`
	Endpoint     string `koanf:"endpoint"` // Custom endpoint (e.g., LocalStack or MinIO)
	FoldersTable string `koanf:"folders_table"`
	ImagesTable  string `koanf:"images_table"`
}

// FirebaseConfig configures the Firestore + Cloud Storage backend
type FirebaseConfig struct {
	ProjectID         string `koanf:"project_id"`
	CredentialsFile   string `koanf:"credentials_file"`
	StorageBucket     string `koanf:"storage_bucket"`
	FoldersCollection string `koanf:"folders_collection"`
	ImagesCollection  string `koanf:"images_collection"`
}

// FlagsConfig selects where the remote feature flags are read from
type FlagsConfig struct {
	Source             string        `koanf:"source"` // "static", "redis" or "http"
	UseFirebaseStorage bool          `koanf:"use_firebase_storage"`
	RedisAddr          string        `koanf:"redis_addr"`
	RedisPassword      string        `koanf:"redis_password"`
	RedisKeyPrefix     string        `koanf:"redis_key_prefix"`
	URL                string        `koanf:"url"`
	Timeout            time.Duration `koanf:"timeout"`
}

// DLMConfig holds lock manager configuration
type DLMConfig struct {
	Type          string `koanf:"type"` // "local" or "redis"
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
}
