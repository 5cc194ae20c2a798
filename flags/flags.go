// Package flags reads boolean feature flags from configuration, Redis or a
// remote-config HTTP endpoint.
package flags

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/config"
)

// UseFirebaseStorage selects the Firebase adapter when true
const UseFirebaseStorage = "useFirebaseStorage"

// ErrUnknownFlag is returned when a source has no value for a flag
var ErrUnknownFlag = errors.New("unknown flag")

// Source provides boolean flag values
type Source interface {
	Bool(ctx context.Context, name string) (bool, error)
}

// Static serves flag values fixed at startup
type Static map[string]bool

// Bool returns the configured value; unset flags are false
func (s Static) Bool(ctx context.Context, name string) (bool, error) {
	return s[name], nil
}

// New builds the flag source selected in configuration
func New(cfg config.FlagsConfig, logger *zap.Logger) (Source, error) {
	switch cfg.Source {
	case "", "static":
		return Static{UseFirebaseStorage: cfg.UseFirebaseStorage}, nil
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisKeyPrefix, logger), nil
	case "http":
		return NewHTTP(cfg.URL, cfg.Timeout, logger), nil
	default:
		return nil, fmt.Errorf("unsupported flags source: %s", cfg.Source)
	}
}
