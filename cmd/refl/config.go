package main

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	configFileName = "typerefl"
	configFileType = "yaml"
	envPrefix      = "TYPEREFL"

	cfgKeyLogLevel   = "log_level"
	cfgKeyDescriptor = "descriptor"
	cfgKeyColor      = "color"

	defaultLogLevel = "warn"
)

// loadConfig layers flags over TYPEREFL_* environment variables over an
// optional config file. A missing default config file is not an error.
func loadConfig(v *viper.Viper, file string) error {
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyColor, true)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && stderrors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// bindFlags maps each persistent flag onto its config key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	keys := map[string]string{
		"descriptor": cfgKeyDescriptor,
		"log-level":  cfgKeyLogLevel,
		"color":      cfgKeyColor,
	}
	for flag, key := range keys {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
}

// newLogger builds a console logger on stderr. Debug level selects the
// development encoder; "off" disables logging.
func newLogger(level string) (*zap.Logger, error) {
	if level == "off" || level == "" {
		return zap.NewNop(), nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, usagef("invalid log level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
