// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hookenv

import (
	"os"

	"github.com/juju/errors"
	"github.com/juju/names/v5"
)

// Environment variables set by the unit agent when it runs a hook.
const (
	EnvUnitName     = "JUJU_UNIT_NAME"
	EnvModelName    = "JUJU_MODEL_NAME"
	EnvCharmDir     = "JUJU_CHARM_DIR"
	EnvDispatchPath = "JUJU_DISPATCH_PATH"
	EnvRelation     = "JUJU_RELATION"
	EnvRelationID   = "JUJU_RELATION_ID"
	EnvRemoteUnit   = "JUJU_REMOTE_UNIT"
	EnvRemoteApp    = "JUJU_REMOTE_APP"
	EnvWorkloadName = "JUJU_WORKLOAD_NAME"
)

// Context describes the hook being run, as seen from its environment.
type Context struct {
	Unit            names.UnitTag
	ApplicationName string
	ModelName       string
	CharmDir        string
	DispatchPath    string

	// Set for relation hooks only.
	RelationName string
	RelationID   string
	RemoteUnit   string
	RemoteApp    string

	// Set for workload hooks only.
	WorkloadName string
}

// NewContextFromEnviron reads the hook context from the process
// environment.
func NewContextFromEnviron() (Context, error) {
	return NewContext(os.Getenv)
}

// NewContext reads the hook context using getenv.
func NewContext(getenv func(string) string) (Context, error) {
	unitName := getenv(EnvUnitName)
	if !names.IsValidUnit(unitName) {
		return Context{}, errors.NotValidf("%s %q", EnvUnitName, unitName)
	}
	appName, err := names.UnitApplication(unitName)
	if err != nil {
		return Context{}, errors.Trace(err)
	}
	ctx := Context{
		Unit:            names.NewUnitTag(unitName),
		ApplicationName: appName,
		ModelName:       getenv(EnvModelName),
		CharmDir:        getenv(EnvCharmDir),
		DispatchPath:    getenv(EnvDispatchPath),
		RelationName:    getenv(EnvRelation),
		RelationID:      getenv(EnvRelationID),
		RemoteUnit:      getenv(EnvRemoteUnit),
		RemoteApp:       getenv(EnvRemoteApp),
		WorkloadName:    getenv(EnvWorkloadName),
	}
	if ctx.RemoteUnit != "" && !names.IsValidUnit(ctx.RemoteUnit) {
		return Context{}, errors.NotValidf("%s %q", EnvRemoteUnit, ctx.RemoteUnit)
	}
	if ctx.RemoteApp == "" && ctx.RemoteUnit != "" {
		ctx.RemoteApp, _ = names.UnitApplication(ctx.RemoteUnit)
	}
	return ctx, nil
}
