// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package plan models the Pebble layer describing the Waltz service, and
// builds it from the database connection.
package plan

import (
	"maps"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"
)

// Startup is the startup mode of a Pebble service.
type Startup string

const (
	StartupUnknown  Startup = ""
	StartupEnabled  Startup = "enabled"
	StartupDisabled Startup = "disabled"
)

// Override is the Pebble layer override mode.
type Override string

const (
	MergeOverride   Override = "merge"
	ReplaceOverride Override = "replace"
)

// Service is one supervised process in a Pebble layer.
type Service struct {
	Summary     string            `yaml:"summary,omitempty"`
	Override    Override          `yaml:"override,omitempty"`
	Command     string            `yaml:"command,omitempty"`
	Startup     Startup           `yaml:"startup,omitempty"`
	User        string            `yaml:"user,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
}

// Equal reports whether two service definitions are the same. A nil and an
// empty environment are considered equal.
func (s *Service) Equal(other *Service) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Summary == other.Summary &&
		s.Override == other.Override &&
		s.Command == other.Command &&
		s.Startup == other.Startup &&
		s.User == other.User &&
		maps.Equal(s.Environment, other.Environment)
}

// Plan is a Pebble plan, or a layer of one.
type Plan struct {
	Summary     string              `yaml:"summary,omitempty"`
	Description string              `yaml:"description,omitempty"`
	Services    map[string]*Service `yaml:"services,omitempty"`
}

// Service returns the named service definition, or nil.
func (p Plan) Service(name string) *Service {
	return p.Services[name]
}

// Validate checks that the plan could be accepted by Pebble.
func (p Plan) Validate() error {
	for name, svc := range p.Services {
		if name == "" {
			return errors.NotValidf("service with empty name")
		}
		if svc == nil {
			return errors.NotValidf("service %q without definition", name)
		}
		switch svc.Startup {
		case StartupUnknown, StartupEnabled, StartupDisabled:
		default:
			return errors.NotValidf("service %q startup %q", name, svc.Startup)
		}
		switch svc.Override {
		case MergeOverride, ReplaceOverride:
		default:
			return errors.NotValidf("service %q override %q", name, svc.Override)
		}
		args, err := shellquote.Split(svc.Command)
		if err != nil {
			return errors.Annotatef(err, "cannot parse service %q command", name)
		}
		if len(args) == 0 {
			return errors.NotValidf("service %q with empty command", name)
		}
		if name == ServiceName && svc.Startup == StartupEnabled {
			keys := set.NewStrings()
			for k := range svc.Environment {
				keys.Add(k)
			}
			if missing := EnvironmentKeys.Difference(keys); !missing.IsEmpty() {
				return errors.NotValidf("service %q environment missing %v", name, missing.SortedValues())
			}
		}
	}
	return nil
}

// Marshal returns the plan as Pebble layer YAML.
func (p Plan) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(p)
	return data, errors.Trace(err)
}

// Parse parses Pebble plan YAML, as returned by the plan API.
func Parse(data []byte) (Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, errors.Annotate(err, "cannot parse plan")
	}
	return p, nil
}
