package config

import "time"

// DefaultAppConfig returns an AppConfig struct with sensible default values
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			ListenAddr:       ":8080",
			CertFile:         "",
			KeyFile:          "",
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			StorageOpTimeout: 10 * time.Second,
			UploadRateLimit:  50,
			UploadRateBurst:  10,
			AllowedOrigins:   []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Backend: BackendConfig{
			AWS: AWSConfig{
				Region:       "us-east-1",
				BucketName:   "",
				FoldersTable: "folders",
				ImagesTable:  "images",
			},
			Firebase: FirebaseConfig{
				FoldersCollection: "folders",
				ImagesCollection:  "images",
			},
		},
		Flags: FlagsConfig{
			Source:             "static",
			UseFirebaseStorage: false,
			RedisAddr:          "localhost:6379",
			RedisKeyPrefix:     "imagedeck:",
			Timeout:            3 * time.Second,
		},
		DLM: DLMConfig{
			Type:      "local",
			RedisAddr: "localhost:6379",
		},
	}
}
