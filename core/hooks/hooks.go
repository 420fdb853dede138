// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package hooks describes the hooks Juju dispatches to a charm and parses
// the hook names found in JUJU_DISPATCH_PATH.
package hooks

import (
	"path"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// Kind enumerates the different kinds of hooks that exist.
type Kind string

const (
	Install               Kind = "install"
	Start                 Kind = "start"
	ConfigChanged         Kind = "config-changed"
	UpgradeCharm          Kind = "upgrade-charm"
	Stop                  Kind = "stop"
	Remove                Kind = "remove"
	UpdateStatus          Kind = "update-status"
	LeaderElected         Kind = "leader-elected"
	LeaderSettingsChanged Kind = "leader-settings-changed"

	RelationCreated  Kind = "relation-created"
	RelationJoined   Kind = "relation-joined"
	RelationChanged  Kind = "relation-changed"
	RelationDeparted Kind = "relation-departed"
	RelationBroken   Kind = "relation-broken"

	PebbleReady Kind = "pebble-ready"
)

var unitKinds = set.NewStrings(
	string(Install),
	string(Start),
	string(ConfigChanged),
	string(UpgradeCharm),
	string(Stop),
	string(Remove),
	string(UpdateStatus),
	string(LeaderElected),
	string(LeaderSettingsChanged),
)

// relationKinds are ordered so that the longest suffix is tried first.
var relationKinds = []Kind{
	RelationCreated,
	RelationJoined,
	RelationChanged,
	RelationDeparted,
	RelationBroken,
}

// IsRelation returns whether the Kind represents a relation hook.
func (kind Kind) IsRelation() bool {
	for _, k := range relationKinds {
		if kind == k {
			return true
		}
	}
	return false
}

// IsWorkload returns whether the Kind represents a workload container hook.
func (kind Kind) IsWorkload() bool {
	return kind == PebbleReady
}

// Info holds details of a hook to be run.
type Info struct {
	Kind Kind

	// Name is the full hook name, e.g. "db-relation-changed".
	Name string

	// RelationName is the endpoint name of a relation hook.
	RelationName string

	// WorkloadName is the container name of a workload hook.
	WorkloadName string
}

// Parse returns the hook described by the given dispatch path. Both bare
// hook names ("config-changed") and dispatch paths ("hooks/config-changed")
// are accepted.
func Parse(dispatchPath string) (Info, error) {
	name := path.Base(strings.TrimSpace(dispatchPath))
	if name == "" || name == "." || name == "/" {
		return Info{}, errors.NotValidf("empty hook name")
	}
	if unitKinds.Contains(name) {
		return Info{Kind: Kind(name), Name: name}, nil
	}
	for _, kind := range relationKinds {
		suffix := "-" + string(kind)
		if relation, ok := strings.CutSuffix(name, suffix); ok && relation != "" {
			return Info{Kind: kind, Name: name, RelationName: relation}, nil
		}
	}
	if workload, ok := strings.CutSuffix(name, "-"+string(PebbleReady)); ok && workload != "" {
		return Info{Kind: PebbleReady, Name: name, WorkloadName: workload}, nil
	}
	return Info{}, errors.NotValidf("hook %q", name)
}
