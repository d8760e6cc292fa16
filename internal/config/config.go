// ABOUTME: Viper-backed configuration setup
// ABOUTME: Registers defaults, binds SPOTLINK_* environment variables and reads spotlink.toml
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"github.com/spotlink/spotlink/internal/filesystem"
	"github.com/spotlink/spotlink/internal/version"
	"github.com/spotlink/spotlink/internal/where"
)

// EnvKeyReplacer maps config keys to environment variable suffixes.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup loads defaults, environment variables and the config file into the
// global viper instance. A missing config file is not an error.
func Setup() error {
	viper.SetConfigName(version.Product)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(version.Product)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}
