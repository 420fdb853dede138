// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package workloadtest provides an in-memory workload container for tests.
package workloadtest

import (
	"maps"

	"github.com/juju/errors"

	"github.com/canonical/finos-waltz-k8s-operator/internal/plan"
)

// Container is an in-memory workload.Container which keeps a plan and
// the running state of its services, and counts the calls made to it.
type Container struct {
	Connectable bool

	// Err, when set, is returned by every call but CanConnect.
	Err error

	Current plan.Plan
	Running map[string]bool

	ReplaceCalls []plan.Plan
	StartCalls   []string
	StopCalls    []string
	RestartCalls []string
}

// NewContainer returns a connectable container with an empty plan.
func NewContainer() *Container {
	return &Container{
		Connectable: true,
		Running:     make(map[string]bool),
	}
}

// CanConnect is part of the workload.Container interface.
func (c *Container) CanConnect() bool {
	return c.Connectable
}

// Plan is part of the workload.Container interface.
func (c *Container) Plan() (plan.Plan, error) {
	if c.Err != nil {
		return plan.Plan{}, c.Err
	}
	return copyPlan(c.Current), nil
}

// ReplacePlan is part of the workload.Container interface.
func (c *Container) ReplacePlan(layer plan.Plan) error {
	if c.Err != nil {
		return c.Err
	}
	c.ReplaceCalls = append(c.ReplaceCalls, copyPlan(layer))
	if c.Current.Services == nil {
		c.Current.Services = make(map[string]*plan.Service)
	}
	for name, svc := range copyPlan(layer).Services {
		c.Current.Services[name] = svc
	}
	return nil
}

// Start is part of the workload.Container interface.
func (c *Container) Start(name string) error {
	if err := c.check(name); err != nil {
		return err
	}
	c.StartCalls = append(c.StartCalls, name)
	c.Running[name] = true
	return nil
}

// Stop is part of the workload.Container interface.
func (c *Container) Stop(name string) error {
	if err := c.check(name); err != nil {
		return err
	}
	c.StopCalls = append(c.StopCalls, name)
	c.Running[name] = false
	return nil
}

// Restart is part of the workload.Container interface.
func (c *Container) Restart(name string) error {
	if err := c.check(name); err != nil {
		return err
	}
	c.RestartCalls = append(c.RestartCalls, name)
	c.Running[name] = true
	return nil
}

// IsRunning is part of the workload.Container interface.
func (c *Container) IsRunning(name string) (bool, error) {
	if c.Err != nil {
		return false, c.Err
	}
	return c.Running[name], nil
}

// ServiceCalls returns the number of start, stop and restart calls made.
func (c *Container) ServiceCalls() int {
	return len(c.StartCalls) + len(c.StopCalls) + len(c.RestartCalls)
}

// ResetCalls forgets the calls recorded so far.
func (c *Container) ResetCalls() {
	c.ReplaceCalls = nil
	c.StartCalls = nil
	c.StopCalls = nil
	c.RestartCalls = nil
}

func (c *Container) check(name string) error {
	if c.Err != nil {
		return c.Err
	}
	if c.Current.Service(name) == nil {
		return errors.NotFoundf("service %q", name)
	}
	return nil
}

func copyPlan(p plan.Plan) plan.Plan {
	out := plan.Plan{Summary: p.Summary, Description: p.Description}
	if p.Services == nil {
		return out
	}
	out.Services = make(map[string]*plan.Service, len(p.Services))
	for name, svc := range p.Services {
		cp := *svc
		cp.Environment = maps.Clone(svc.Environment)
		out.Services[name] = &cp
	}
	return out
}
