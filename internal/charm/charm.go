// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package charm reacts to the hooks Juju runs for the finos-waltz-k8s
// unit. Every hook ends with one convergence pass which brings the
// workload in line with the database relation and sets the unit status.
package charm

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/names/v5"

	"github.com/canonical/finos-waltz-k8s-operator/core/hooks"
	corestatus "github.com/canonical/finos-waltz-k8s-operator/core/status"
	"github.com/canonical/finos-waltz-k8s-operator/internal/config"
	"github.com/canonical/finos-waltz-k8s-operator/internal/database"
	"github.com/canonical/finos-waltz-k8s-operator/internal/hookenv"
	"github.com/canonical/finos-waltz-k8s-operator/internal/ingress"
	"github.com/canonical/finos-waltz-k8s-operator/internal/plan"
	"github.com/canonical/finos-waltz-k8s-operator/internal/workload"
)

var logger = loggo.GetLogger("finos-waltz.charm")

// DatabaseRelation is the endpoint PostgreSQL relates to.
const DatabaseRelation = "db"

// Platform is the unit agent as seen from a hook.
type Platform interface {
	RelationIDs(endpoint string) ([]string, error)
	RelationUnits(relationID string) ([]string, error)
	RelationData(relationID, member string, app bool) (map[string]string, error)
	SetRelationData(relationID string, app bool, data map[string]string) error
	IsLeader() (bool, error)
	Config() (map[string]interface{}, error)
	corestatus.StatusSetter
}

// ServicePatcher keeps a port open on the application's Kubernetes
// service.
type ServicePatcher interface {
	EnsurePort(ctx context.Context, application, name string, port int32) error
}

// Config holds what a Charm needs to handle a hook.
type Config struct {
	// Context describes the running hook.
	Context hookenv.Context

	Platform  Platform
	Container workload.Container

	// NewServicePatcher is only called by hooks which patch the
	// Kubernetes service.
	NewServicePatcher func() (ServicePatcher, error)
}

// Validate returns an error if the config cannot be used.
func (c Config) Validate() error {
	if !names.IsValidApplication(c.Context.ApplicationName) {
		return errors.NotValidf("application name %q", c.Context.ApplicationName)
	}
	if c.Platform == nil {
		return errors.NotValidf("nil Platform")
	}
	if c.Container == nil {
		return errors.NotValidf("nil Container")
	}
	if c.NewServicePatcher == nil {
		return errors.NotValidf("nil NewServicePatcher")
	}
	return nil
}

type handler func(context.Context, hooks.Info) error

// Charm dispatches hooks to their handlers.
type Charm struct {
	cfg      Config
	handlers map[hooks.Kind]handler
}

// New returns a Charm for the given config.
func New(cfg Config) (*Charm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	c := &Charm{cfg: cfg}
	c.handlers = map[hooks.Kind]handler{
		hooks.Install:         c.patchService,
		hooks.UpgradeCharm:    c.patchService,
		hooks.RelationJoined:  c.relationJoined,
		hooks.RelationChanged: c.relationChanged,
		hooks.ConfigChanged:   c.publishIngress,
		hooks.LeaderElected:   c.publishIngress,
	}
	return c, nil
}

// Dispatch runs the handler for the hook, if any, then converges the
// workload and reports the resulting status. The returned error is
// non-nil if the hook should be retried.
func (c *Charm) Dispatch(ctx context.Context, hook hooks.Info) error {
	if hook.Kind.IsRelation() {
		logger.Infof("running %q hook for relation %s", hook.Name, c.cfg.Context.RelationID)
	} else {
		logger.Infof("running %q hook", hook.Name)
	}

	var handlerErr error
	if h, ok := c.handlers[hook.Kind]; ok {
		if handlerErr = h(ctx, hook); handlerErr != nil {
			logger.Errorf("%s hook: %v", hook.Name, handlerErr)
		}
	}

	outcome := c.converge(hook)
	logger.Infof("convergence result %q, status %s %q", outcome.Result, outcome.Status.Status, outcome.Status.Message)
	if err := c.cfg.Platform.SetStatus(outcome.Status); err != nil {
		return errors.Annotate(err, "setting unit status")
	}
	if handlerErr != nil {
		return errors.Annotatef(handlerErr, "running %s hook", hook.Name)
	}
	return errors.Trace(outcome.Err)
}

func (c *Charm) converge(hook hooks.Info) Outcome {
	if !c.cfg.Container.CanConnect() {
		return Converge(Inputs{})
	}
	data, err := c.databaseRelationData(hook)
	if err != nil {
		return Outcome{
			Status: corestatus.StatusInfo{Status: corestatus.Blocked, Message: err.Error()},
			Err:    errors.Trace(err),
		}
	}
	return Converge(Inputs{
		Connectable:  true,
		RelationData: data,
		Container:    c.cfg.Container,
	})
}

// databaseRelationData returns every data bag published on the database
// relations: for each relation the remote application's bag, then the
// remote units' bags. A relation being broken is left out.
func (c *Charm) databaseRelationData(hook hooks.Info) ([]map[string]string, error) {
	ids, err := c.cfg.Platform.RelationIDs(DatabaseRelation)
	if err != nil {
		return nil, errors.Annotate(err, "listing database relations")
	}
	var bags []map[string]string
	for _, id := range ids {
		if hook.Kind == hooks.RelationBroken && id == c.cfg.Context.RelationID {
			logger.Debugf("ignoring broken relation %s", id)
			continue
		}
		units, err := c.cfg.Platform.RelationUnits(id)
		if err != nil {
			return nil, errors.Annotatef(err, "listing units of relation %s", id)
		}
		if len(units) == 0 {
			continue
		}
		app, err := names.UnitApplication(units[0])
		if err != nil {
			return nil, errors.Trace(err)
		}
		data, err := c.cfg.Platform.RelationData(id, app, true)
		if err != nil {
			return nil, errors.Annotatef(err, "reading %s data on relation %s", app, id)
		}
		bags = append(bags, data)
		for _, unit := range units {
			data, err := c.cfg.Platform.RelationData(id, unit, false)
			if err != nil {
				return nil, errors.Annotatef(err, "reading %s data on relation %s", unit, id)
			}
			bags = append(bags, data)
		}
	}
	return bags, nil
}

func (c *Charm) patchService(ctx context.Context, _ hooks.Info) error {
	if err := c.cfg.Platform.SetStatus(corestatus.StatusInfo{
		Status:  corestatus.Maintenance,
		Message: corestatus.MessageConfiguringUnit,
	}); err != nil {
		return errors.Trace(err)
	}
	patcher, err := c.cfg.NewServicePatcher()
	if err != nil {
		return errors.Annotate(err, "creating kubernetes client")
	}
	err = patcher.EnsurePort(ctx, c.cfg.Context.ApplicationName, plan.ServiceName, plan.Port)
	return errors.Trace(err)
}

func (c *Charm) relationJoined(ctx context.Context, hook hooks.Info) error {
	switch hook.RelationName {
	case DatabaseRelation:
		return c.requestDatabase()
	case ingress.RelationName:
		return c.publishIngress(ctx, hook)
	}
	return nil
}

func (c *Charm) relationChanged(ctx context.Context, hook hooks.Info) error {
	if hook.RelationName == ingress.RelationName {
		return c.publishIngress(ctx, hook)
	}
	return nil
}

// requestDatabase asks PostgreSQL for a database named after the
// application. Only the leader can write application data.
func (c *Charm) requestDatabase() error {
	leader, err := c.cfg.Platform.IsLeader()
	if err != nil || !leader {
		return errors.Trace(err)
	}
	app := c.cfg.Context.ApplicationName
	logger.Infof("requesting database %q", app)
	err = c.cfg.Platform.SetRelationData(c.cfg.Context.RelationID, true, map[string]string{
		database.DatabaseKey: app,
	})
	return errors.Trace(err)
}

func (c *Charm) publishIngress(_ context.Context, _ hooks.Info) error {
	leader, err := c.cfg.Platform.IsLeader()
	if err != nil || !leader {
		return errors.Trace(err)
	}
	attrs, err := c.cfg.Platform.Config()
	if err != nil {
		return errors.Trace(err)
	}
	cfg, err := config.New(attrs)
	if err != nil {
		return errors.Trace(err)
	}
	app := c.cfg.Context.ApplicationName
	req, err := ingress.NewRequest(cfg.ExternalHostname(app), app, plan.Port)
	if err != nil {
		return errors.Trace(err)
	}
	ids, err := c.cfg.Platform.RelationIDs(ingress.RelationName)
	if err != nil {
		return errors.Trace(err)
	}
	for _, id := range ids {
		logger.Debugf("publishing ingress for %q on %s", req.ServiceHostname, id)
		if err := c.cfg.Platform.SetRelationData(id, true, req.Data()); err != nil {
			return errors.Annotatef(err, "publishing ingress on relation %s", id)
		}
	}
	return nil
}
