/*
 * © 2022-2026 Snyk Limited
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotReadable = errors.New("sentry-instrumentation: config file does not exist or is not readable")
	ErrUnsupportedFormat = errors.New("sentry-instrumentation: only .json/.ini/.yml/.yaml config files are supported")
)

// fileConfig mirrors the layout of a config file. Absent keys stay nil and keep their default.
type fileConfig struct {
	Cache   *bool `yaml:"cache" json:"cache"`
	DB      *bool `yaml:"db" json:"db"`
	View    *bool `yaml:"view" json:"view"`
	Options struct {
		Cache struct {
			Backtrace *bool    `yaml:"backtrace" json:"backtrace"`
			Services  []string `yaml:"services" json:"services"`
		} `yaml:"cache" json:"cache"`
		DB struct {
			Backtrace *bool `yaml:"backtrace" json:"backtrace"`
		} `yaml:"db" json:"db"`
		View struct {
			Parameters *bool `yaml:"parameters" json:"parameters"`
		} `yaml:"view" json:"view"`
	} `yaml:"options" json:"options"`
	Sentry struct {
		Options struct {
			Dsn              *string  `yaml:"dsn" json:"dsn"`
			Environment      *string  `yaml:"environment" json:"environment"`
			Release          *string  `yaml:"release" json:"release"`
			Debug            *bool    `yaml:"debug" json:"debug"`
			TracesSampleRate *float64 `yaml:"traces_sample_rate" json:"traces_sample_rate"`
		} `yaml:"options" json:"options"`
	} `yaml:"sentry" json:"sentry"`
}

// Load returns the defaults merged with the file at path. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	if err := c.MergeFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// MergeFile overrides c with every key present in the file at path. The format follows the
// file extension.
func (c *Config) MergeFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return errors.Wrapf(ErrConfigNotReadable, "config file %s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(ErrConfigNotReadable, "config file %s: %v", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(content, &fc)
	case ".json":
		err = json.Unmarshal(content, &fc)
	case ".ini":
		err = parseIni(content, &fc)
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "config file %s", path)
	}
	if err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	c.merge(&fc)
	return nil
}

func (c *Config) merge(fc *fileConfig) {
	setBool(&c.Cache.Enabled, fc.Cache)
	setBool(&c.DB.Enabled, fc.DB)
	setBool(&c.View.Enabled, fc.View)
	setBool(&c.Cache.CaptureBacktrace, fc.Options.Cache.Backtrace)
	if len(fc.Options.Cache.Services) > 0 {
		c.Cache.Services = fc.Options.Cache.Services
	}
	setBool(&c.DB.CaptureBacktrace, fc.Options.DB.Backtrace)
	setBool(&c.View.CaptureRenderParameters, fc.Options.View.Parameters)

	o := fc.Sentry.Options
	if o.Dsn != nil {
		c.Dsn = *o.Dsn
	}
	if o.Environment != nil {
		c.Environment = *o.Environment
	}
	if o.Release != nil {
		c.Release = *o.Release
	}
	setBool(&c.Debug, o.Debug)
	if o.TracesSampleRate != nil {
		c.TracesSampleRate = *o.TracesSampleRate
	}
}

func setBool(target *bool, value *bool) {
	if value != nil {
		*target = *value
	}
}

// parseIni reads top level flags from the default section and options from the
// [options.cache], [options.db], [options.view] and [sentry.options] sections.
func parseIni(content []byte, fc *fileConfig) error {
	f, err := ini.Load(content)
	if err != nil {
		return err
	}

	root := f.Section("")
	for key, target := range map[string]**bool{"cache": &fc.Cache, "db": &fc.DB, "view": &fc.View} {
		if err = iniBool(root, key, target); err != nil {
			return err
		}
	}

	if section, sErr := f.GetSection("options.cache"); sErr == nil {
		if err = iniBool(section, "backtrace", &fc.Options.Cache.Backtrace); err != nil {
			return err
		}
		if section.HasKey("services") {
			fc.Options.Cache.Services = section.Key("services").Strings(",")
		}
	}
	if section, sErr := f.GetSection("options.db"); sErr == nil {
		if err = iniBool(section, "backtrace", &fc.Options.DB.Backtrace); err != nil {
			return err
		}
	}
	if section, sErr := f.GetSection("options.view"); sErr == nil {
		if err = iniBool(section, "parameters", &fc.Options.View.Parameters); err != nil {
			return err
		}
	}
	if section, sErr := f.GetSection("sentry.options"); sErr == nil {
		o := &fc.Sentry.Options
		for key, target := range map[string]**string{"dsn": &o.Dsn, "environment": &o.Environment, "release": &o.Release} {
			if section.HasKey(key) {
				value := section.Key(key).String()
				*target = &value
			}
		}
		if err = iniBool(section, "debug", &o.Debug); err != nil {
			return err
		}
		if section.HasKey("traces_sample_rate") {
			rate, fErr := section.Key("traces_sample_rate").Float64()
			if fErr != nil {
				return errors.Wrap(fErr, "traces_sample_rate")
			}
			o.TracesSampleRate = &rate
		}
	}
	return nil
}

func iniBool(section *ini.Section, key string, target **bool) error {
	if !section.HasKey(key) {
		return nil
	}
	value, err := section.Key(key).Bool()
	if err != nil {
		return errors.Wrapf(err, "key %s", key)
	}
	*target = &value
	return nil
}
