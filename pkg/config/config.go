package config

import (
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type option struct {
	cfg        string
	name       string
	envPrefix  string
	configType string
	defaults   map[string]interface{}
}

type Option func(*option)

func WithConfigFile(cfg string) Option {
	return func(o *option) {
		o.cfg = cfg
	}
}

func WithConfigType(configType string) Option {
	return func(o *option) {
		o.configType = configType
	}
}

func WithName(name string) Option {
	return func(o *option) {
		o.name = name
	}
}

func WithEnvPrefix(envPrefix string) Option {
	return func(o *option) {
		o.envPrefix = envPrefix
	}
}

// WithDefaults registers default values; only keys known to viper are overridable from the environment.
func WithDefaults(defaults map[string]interface{}) Option {
	return func(o *option) {
		o.defaults = defaults
	}
}

// Load reads the configuration file into a fresh viper instance.
// A missing file is not an error when no explicit path was given.
func Load(opts ...Option) (*viper.Viper, error) {
	o := &option{
		name:       "config",
		envPrefix:  "cloud",
		configType: "yaml",
	}
	for _, opt := range opts {
		opt(o)
	}
	v := viper.New()
	for key, value := range o.defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigType(o.configType)
	if o.cfg != "" {
		v.SetConfigFile(o.cfg)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName(o.name)
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.cfg != "" || !errors.As(err, &notFound) {
			return nil, errors.WithStack(err)
		}
	}
	return v, nil
}
