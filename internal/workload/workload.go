// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package workload converges the Pebble plan of the workload container on
// a desired plan, touching the running service only when needed.
package workload

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	coreerrors "github.com/canonical/finos-waltz-k8s-operator/core/errors"
	"github.com/canonical/finos-waltz-k8s-operator/internal/plan"
)

var logger = loggo.GetLogger("finos-waltz.workload")

// Container is the workload container, as seen through its Pebble.
type Container interface {
	// CanConnect reports whether Pebble in the container is reachable.
	CanConnect() bool

	// Plan returns the currently active (combined) plan.
	Plan() (plan.Plan, error)

	// ReplacePlan adds the given layer so that its services replace the
	// existing definitions.
	ReplacePlan(plan.Plan) error

	// Start, Stop and Restart act on the named service and wait for
	// the resulting change to complete.
	Start(name string) error
	Stop(name string) error
	Restart(name string) error

	// IsRunning reports whether the named service is active.
	IsRunning(name string) (bool, error)
}

// Result describes what a reconciliation did.
type Result string

const (
	// Unchanged means the plan was already in place and running.
	Unchanged Result = "unchanged"

	// Applied means the plan was (re)written and the service started.
	Applied Result = "applied"

	// Stopped means the service is not defined, or was left stopped.
	Stopped Result = "stopped"
)

// Reconcile makes the container run the given desired plan. The caller
// must have checked that the container can be connected to. Any failure
// to talk to the container satisfies coreerrors.PlatformUnavailable.
func Reconcile(container Container, desired plan.Plan) (Result, error) {
	active, err := container.Plan()
	if err != nil {
		return "", unavailable(err, "reading plan")
	}

	result := Unchanged
	for _, name := range serviceNames(desired) {
		var serviceResult Result
		if desired.Service(name).Startup == plan.StartupDisabled {
			serviceResult, err = disable(container, desired, name, active.Service(name))
		} else {
			serviceResult, err = enable(container, desired, name, active.Service(name))
		}
		if err != nil {
			return "", errors.Trace(err)
		}
		result = combine(result, serviceResult)
	}
	return result, nil
}

// combine folds per service results: any Applied service makes the whole
// plan Applied, then any Stopped one makes it Stopped.
func combine(a, b Result) Result {
	switch {
	case a == Applied || b == Applied:
		return Applied
	case a == Stopped || b == Stopped:
		return Stopped
	}
	return Unchanged
}

func serviceNames(p plan.Plan) []string {
	names := set.NewStrings()
	for name := range p.Services {
		names.Add(name)
	}
	return names.SortedValues()
}

func enable(container Container, desired plan.Plan, name string, current *plan.Service) (Result, error) {
	running, err := container.IsRunning(name)
	if err != nil {
		return "", unavailable(err, "checking service %q", name)
	}
	if current.Equal(desired.Service(name)) {
		if running {
			logger.Debugf("service %q already running the desired plan", name)
			return Unchanged, nil
		}
		logger.Infof("starting service %q", name)
		if err := container.Start(name); err != nil {
			return "", unavailable(err, "starting service %q", name)
		}
		return Applied, nil
	}

	logger.Infof("updating plan of service %q", name)
	if err := container.ReplacePlan(desired); err != nil {
		return "", unavailable(err, "replacing plan")
	}
	if running {
		err = container.Restart(name)
	} else {
		err = container.Start(name)
	}
	if err != nil {
		return "", unavailable(err, "starting service %q", name)
	}
	return Applied, nil
}

func disable(container Container, desired plan.Plan, name string, current *plan.Service) (Result, error) {
	if current == nil {
		// Never defined, so never started.
		return Stopped, nil
	}
	if !current.Equal(desired.Service(name)) {
		logger.Infof("disabling service %q", name)
		if err := container.ReplacePlan(desired); err != nil {
			return "", unavailable(err, "replacing plan")
		}
	}
	running, err := container.IsRunning(name)
	if err != nil {
		return "", unavailable(err, "checking service %q", name)
	}
	if running {
		logger.Infof("stopping service %q", name)
		if err := container.Stop(name); err != nil {
			return "", unavailable(err, "stopping service %q", name)
		}
	}
	return Stopped, nil
}

func unavailable(err error, format string, args ...any) error {
	return errors.WithType(errors.Annotatef(err, format, args...), coreerrors.PlatformUnavailable)
}
