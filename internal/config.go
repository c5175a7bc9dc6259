package internal

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

// Config is the engine configuration, loaded from the environment.
type Config struct {
	SftpHost     string        `env:"SFTP_HOST,required=true" validate:"required,hostname|ip"`
	SftpPort     int           `env:"SFTP_PORT,default=22" validate:"gt=0,lte=65535"`
	SftpUser     string        `env:"SFTP_USER,required=true" validate:"required"`
	SftpPassword string        `env:"SFTP_PASSWORD"`
	SftpKeyFile  string        `env:"SFTP_KEY_FILE"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT,default=15s"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true" validate:"required"`
	LogLevel       string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`

	// CompletedTTL is how long completed transfers stay listed before
	// automatic removal.
	CompletedTTL     time.Duration `env:"COMPLETED_TTL,default=5s" validate:"gt=0"`
	DispatcherBuffer int           `env:"DISPATCHER_BUFFER,default=64" validate:"gt=0"`

	// ConflictPolicy is the non-interactive default decision applied to
	// every destination collision.
	ConflictPolicy string `env:"CONFLICT_POLICY,default=overwrite" validate:"oneof=overwrite skip resume keepboth"`
}

// LoadConfig unmarshals and validates the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation error: %w", err)
	}
	return cfg, nil
}
