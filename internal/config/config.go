// MIT License

// Copyright (c) 2018 Akhil Indurti

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package config loads deltadoc settings from deltadoc.yaml and DELTADOC_*
// environment variables.
package config // import "akhil.cc/deltadoc/internal/config"

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"akhil.cc/deltadoc/delim"
	"github.com/spf13/viper"
)

type Config struct {
	Link struct {
		Schemes      []string `mapstructure:"schemes"`
		MacroSchemes []string `mapstructure:"macro_schemes"`
	} `mapstructure:"link"`
	Embed struct {
		Command string        `mapstructure:"command"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"embed"`
	Serve struct {
		Port    int      `mapstructure:"port"`
		Origins []string `mapstructure:"origins"`
	} `mapstructure:"serve"`
	Cache struct {
		// Addr is the Redis address. Empty disables caching.
		Addr string        `mapstructure:"addr"`
		TTL  time.Duration `mapstructure:"ttl"`
	} `mapstructure:"cache"`
	Recognize struct {
		// Mode is "type" to replay markup keystroke by keystroke, or
		// "paste" to insert it as one change.
		Mode string `mapstructure:"mode"`
	} `mapstructure:"recognize"`
}

const (
	ModeType  = "type"
	ModePaste = "paste"
)

func defaults(v *viper.Viper) {
	v.SetDefault("link.schemes", delim.DefaultPolicy.Schemes)
	v.SetDefault("link.macro_schemes", delim.DefaultPolicy.MacroSchemes)
	v.SetDefault("embed.command", "")
	v.SetDefault("embed.timeout", time.Duration(0))
	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.origins", []string{})
	v.SetDefault("cache.addr", "")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("recognize.mode", ModeType)
}

// Load reads the configuration. When file is empty, deltadoc.yaml is looked
// up in ".", "./config" and "$HOME/.config/deltadoc", and a missing file
// leaves the defaults in place. An explicit file must exist.
func Load(file string) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("DELTADOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("deltadoc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.config/deltadoc")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.Recognize.Mode {
	case ModeType, ModePaste:
	default:
		return fmt.Errorf("recognize.mode: unknown mode %q", c.Recognize.Mode)
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port: %d out of range", c.Serve.Port)
	}
	for _, o := range c.Serve.Origins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("serve.origins: bad origin %q", o)
		}
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl: negative duration %v", c.Cache.TTL)
	}
	if c.Embed.Timeout < 0 {
		return fmt.Errorf("embed.timeout: negative duration %v", c.Embed.Timeout)
	}
	return nil
}

// Policy is the delimiter policy described by the link settings.
func (c *Config) Policy() delim.Policy {
	if len(c.Link.Schemes) == 0 {
		return delim.DefaultPolicy
	}
	return delim.Policy{Schemes: c.Link.Schemes, MacroSchemes: c.Link.MacroSchemes}
}
