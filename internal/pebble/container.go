// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package pebble implements the workload container on top of the Pebble
// daemon running in the workload's sidecar container.
package pebble

import (
	"path/filepath"
	"time"

	"github.com/canonical/pebble/client"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/canonical/finos-waltz-k8s-operator/internal/plan"
)

var logger = loggo.GetLogger("finos-waltz.pebble")

const (
	// DefaultSocketDir is where Juju mounts the Pebble sockets of the
	// workload containers into the charm container.
	DefaultSocketDir = "/charm/containers"

	// LayerLabel labels the layer holding the charm's services.
	LayerLabel = "waltz"

	defaultWaitTimeout = 30 * time.Second
)

// Client is the subset of the Pebble client API used by Container.
type Client interface {
	SysInfo() (*client.SysInfo, error)
	PlanBytes(*client.PlanOptions) ([]byte, error)
	AddLayer(*client.AddLayerOptions) error
	Start(*client.ServiceOptions) (string, error)
	Stop(*client.ServiceOptions) (string, error)
	Restart(*client.ServiceOptions) (string, error)
	Services(*client.ServicesOptions) ([]*client.ServiceInfo, error)
	WaitChange(string, *client.WaitChangeOptions) (*client.Change, error)
}

// SocketPath returns the Pebble socket of the named workload container.
func SocketPath(socketDir, containerName string) string {
	return filepath.Join(socketDir, containerName, "pebble.socket")
}

// Container is a workload container reached through its Pebble socket.
type Container struct {
	name        string
	client      Client
	waitTimeout time.Duration
}

// Open returns the named container, using the Pebble socket under
// socketDir. It does not connect.
func Open(socketDir, containerName string) (*Container, error) {
	c, err := client.New(&client.Config{
		Socket: SocketPath(socketDir, containerName),
	})
	if err != nil {
		return nil, errors.Annotatef(err, "creating pebble client for container %q", containerName)
	}
	return NewContainer(containerName, c), nil
}

// NewContainer returns a Container using the given Pebble client.
func NewContainer(name string, c Client) *Container {
	return &Container{
		name:        name,
		client:      c,
		waitTimeout: defaultWaitTimeout,
	}
}

// CanConnect is part of the workload.Container interface.
func (c *Container) CanConnect() bool {
	if _, err := c.client.SysInfo(); err != nil {
		logger.Debugf("cannot connect to pebble in container %q: %v", c.name, err)
		return false
	}
	return true
}

// Plan is part of the workload.Container interface.
func (c *Container) Plan() (plan.Plan, error) {
	data, err := c.client.PlanBytes(&client.PlanOptions{})
	if err != nil {
		return plan.Plan{}, errors.Annotatef(err, "fetching plan of container %q", c.name)
	}
	p, err := plan.Parse(data)
	return p, errors.Trace(err)
}

// ReplacePlan is part of the workload.Container interface. The layer is
// combined with any existing layer of the same label; its services carry
// the replace override so they supersede earlier definitions.
func (c *Container) ReplacePlan(layer plan.Plan) error {
	if err := layer.Validate(); err != nil {
		return errors.Trace(err)
	}
	data, err := layer.Marshal()
	if err != nil {
		return errors.Trace(err)
	}
	err = c.client.AddLayer(&client.AddLayerOptions{
		Combine:   true,
		Label:     LayerLabel,
		LayerData: data,
	})
	return errors.Annotatef(err, "adding layer to container %q", c.name)
}

// Start is part of the workload.Container interface.
func (c *Container) Start(name string) error {
	return c.serviceAction("start", c.client.Start, name)
}

// Stop is part of the workload.Container interface.
func (c *Container) Stop(name string) error {
	return c.serviceAction("stop", c.client.Stop, name)
}

// Restart is part of the workload.Container interface.
func (c *Container) Restart(name string) error {
	return c.serviceAction("restart", c.client.Restart, name)
}

// IsRunning is part of the workload.Container interface.
func (c *Container) IsRunning(name string) (bool, error) {
	services, err := c.client.Services(&client.ServicesOptions{Names: []string{name}})
	if err != nil {
		return false, errors.Annotatef(err, "querying service %q", name)
	}
	for _, svc := range services {
		if svc.Name == name {
			return svc.Current == client.StatusActive, nil
		}
	}
	return false, nil
}

func (c *Container) serviceAction(action string, do func(*client.ServiceOptions) (string, error), name string) error {
	changeID, err := do(&client.ServiceOptions{Names: []string{name}})
	if err != nil {
		return errors.Annotatef(err, "cannot %s service %q", action, name)
	}
	change, err := c.client.WaitChange(changeID, &client.WaitChangeOptions{Timeout: c.waitTimeout})
	if err != nil {
		return errors.Annotatef(err, "waiting for %s of service %q", action, name)
	}
	if change.Err != "" {
		return errors.Errorf("cannot %s service %q: %s", action, name, change.Err)
	}
	logger.Debugf("%s of service %q completed (change %s)", action, name, changeID)
	return nil
}
