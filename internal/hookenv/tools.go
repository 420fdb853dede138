// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package hookenv talks to the unit agent through the hook tools (relation-get,
// status-set, ...) available on the PATH of a running hook.
package hookenv

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/utils/v4/exec"
	"github.com/kballard/go-shellquote"

	coreerrors "github.com/canonical/finos-waltz-k8s-operator/core/errors"
	corestatus "github.com/canonical/finos-waltz-k8s-operator/core/status"
)

// CommandRunner allows to run commands on the underlying system.
type CommandRunner interface {
	RunCommands(run exec.RunParams) (*exec.ExecResponse, error)
}

type defaultRunner struct{}

// RunCommands executes the Commands specified in the RunParams using
// '/bin/bash -s', passing the commands through as stdin, and collecting
// stdout and stderr.
func (defaultRunner) RunCommands(run exec.RunParams) (*exec.ExecResponse, error) {
	return exec.RunCommands(run)
}

// DefaultRunner returns a CommandRunner running commands on this machine.
func DefaultRunner() CommandRunner {
	return defaultRunner{}
}

// Tools wraps the hook tools.
type Tools struct {
	runner CommandRunner
}

// NewTools returns Tools running hook tools with the given runner.
func NewTools(runner CommandRunner) *Tools {
	return &Tools{runner: runner}
}

// RelationIDs returns the ids of the relations established on the named
// endpoint.
func (t *Tools) RelationIDs(endpoint string) ([]string, error) {
	var ids []string
	if err := t.runJSON(&ids, "relation-ids", "--format=json", endpoint); err != nil {
		return nil, errors.Trace(err)
	}
	return ids, nil
}

// RelationUnits returns the remote units participating in the relation.
func (t *Tools) RelationUnits(relationID string) ([]string, error) {
	var units []string
	if err := t.runJSON(&units, "relation-list", "--format=json", "-r", relationID); err != nil {
		return nil, errors.Trace(err)
	}
	return units, nil
}

// RelationData returns the settings published on the relation by the given
// unit, or by the given application when app is true.
func (t *Tools) RelationData(relationID, member string, app bool) (map[string]string, error) {
	args := []string{"relation-get", "--format=json", "-r", relationID}
	if app {
		args = append(args, "--app")
	}
	args = append(args, "-", member)

	var data map[string]string
	if err := t.runJSON(&data, args...); err != nil {
		return nil, errors.Trace(err)
	}
	if data == nil {
		data = make(map[string]string)
	}
	return data, nil
}

// SetRelationData publishes settings on the relation, in this unit's bag
// or, when app is true, in the application bag (leader only).
func (t *Tools) SetRelationData(relationID string, app bool, data map[string]string) error {
	if len(data) == 0 {
		return nil
	}
	args := []string{"relation-set", "-r", relationID}
	if app {
		args = append(args, "--app")
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, k+"="+data[k])
	}
	_, err := t.run(args...)
	return errors.Trace(err)
}

// IsLeader reports whether this unit is the application leader.
func (t *Tools) IsLeader() (bool, error) {
	var leader bool
	if err := t.runJSON(&leader, "is-leader", "--format=json"); err != nil {
		return false, errors.Trace(err)
	}
	return leader, nil
}

// Config returns the charm configuration.
func (t *Tools) Config() (map[string]interface{}, error) {
	var cfg map[string]interface{}
	if err := t.runJSON(&cfg, "config-get", "--format=json"); err != nil {
		return nil, errors.Trace(err)
	}
	if cfg == nil {
		cfg = make(map[string]interface{})
	}
	return cfg, nil
}

// SetStatus sets the workload status of this unit.
func (t *Tools) SetStatus(info corestatus.StatusInfo) error {
	if !corestatus.ValidWorkloadStatus(info.Status) {
		return errors.NotValidf("workload status %q", info.Status)
	}
	_, err := t.run("status-set", info.Status.String(), info.Message)
	return errors.Trace(err)
}

// Log writes a message to the unit's log at the given level (DEBUG, INFO,
// WARNING, ERROR).
func (t *Tools) Log(level, message string) error {
	_, err := t.run("juju-log", "--log-level", level, message)
	return errors.Trace(err)
}

func (t *Tools) runJSON(out interface{}, args ...string) error {
	stdout, err := t.run(args...)
	if err != nil {
		return errors.Trace(err)
	}
	if len(strings.TrimSpace(string(stdout))) == 0 {
		return nil
	}
	if err := json.Unmarshal(stdout, out); err != nil {
		return errors.Annotatef(err, "cannot parse %s output", args[0])
	}
	return nil
}

func (t *Tools) run(args ...string) ([]byte, error) {
	resp, err := t.runner.RunCommands(exec.RunParams{
		Commands: shellquote.Join(args...),
	})
	if err != nil {
		return nil, errors.WithType(errors.Annotatef(err, "running %s", args[0]), coreerrors.PlatformUnavailable)
	}
	if resp.Code != 0 {
		err := errors.Errorf("%s failed with exit code %d: %s", args[0], resp.Code, strings.TrimSpace(string(resp.Stderr)))
		return nil, errors.WithType(err, coreerrors.PlatformUnavailable)
	}
	return resp.Stdout, nil
}
