// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package config holds the charm's configuration options.
package config

import (
	"sort"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/schema"
)

var logger = loggo.GetLogger("finos-waltz.config")

const (
	// ExternalHostnameKey is the hostname the ingress exposes Waltz
	// under. When empty the application name is used.
	ExternalHostnameKey = "external-hostname"
)

var fields = schema.Fields{
	ExternalHostnameKey: schema.String(),
}

var defaults = schema.Defaults{
	ExternalHostnameKey: "",
}

// Config is the validated charm configuration.
type Config struct {
	attrs map[string]interface{}
}

// New validates the attributes returned by config-get, filling in
// defaults. Unknown options are ignored.
func New(attrs map[string]interface{}) (*Config, error) {
	var unknown []string
	for k := range attrs {
		if _, ok := fields[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		logger.Warningf("ignoring unknown config options %v", unknown)
	}

	coerced, err := schema.FieldMap(fields, defaults).Coerce(attrs, nil)
	if err != nil {
		return nil, errors.Annotate(err, "validating charm config")
	}
	return &Config{attrs: coerced.(map[string]interface{})}, nil
}

// ExternalHostname returns the configured external hostname, or the
// application name if none is set.
func (c *Config) ExternalHostname(application string) string {
	if hostname, _ := c.attrs[ExternalHostnameKey].(string); hostname != "" {
		return hostname
	}
	return application
}
