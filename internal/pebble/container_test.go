// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pebble_test

import (
	"github.com/canonical/pebble/client"
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"

	"github.com/canonical/finos-waltz-k8s-operator/internal/database"
	"github.com/canonical/finos-waltz-k8s-operator/internal/pebble"
	"github.com/canonical/finos-waltz-k8s-operator/internal/plan"
)

type containerSuite struct {
	client    *MockClient
	container *pebble.Container
}

var _ = gc.Suite(&containerSuite{})

func (s *containerSuite) setupMocks(c *gc.C) *gomock.Controller {
	ctrl := gomock.NewController(c)
	s.client = NewMockClient(ctrl)
	s.container = pebble.NewContainer("waltz", s.client)
	return ctrl
}

func (s *containerSuite) TestSocketPath(c *gc.C) {
	c.Assert(pebble.SocketPath(pebble.DefaultSocketDir, "waltz"), gc.Equals, "/charm/containers/waltz/pebble.socket")
}

func (s *containerSuite) TestCanConnect(c *gc.C) {
	defer s.setupMocks(c).Finish()

	gomock.InOrder(
		s.client.EXPECT().SysInfo().Return(&client.SysInfo{Version: "v1.17.0"}, nil),
		s.client.EXPECT().SysInfo().Return(nil, errors.New("dial unix: no such file")),
	)
	c.Check(s.container.CanConnect(), jc.IsTrue)
	c.Check(s.container.CanConnect(), jc.IsFalse)
}

func (s *containerSuite) TestPlan(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.client.EXPECT().PlanBytes(gomock.Any()).Return([]byte(`
services:
    waltz:
        override: replace
        command: /bin/sh -c 'docker-entrypoint.sh update run'
        startup: disabled
`), nil)

	p, err := s.container.Plan()
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(p.Service("waltz"), gc.NotNil)
	c.Check(p.Service("waltz").Startup, gc.Equals, plan.StartupDisabled)
}

func (s *containerSuite) TestPlanError(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.client.EXPECT().PlanBytes(gomock.Any()).Return(nil, errors.New("boom"))

	_, err := s.container.Plan()
	c.Assert(err, gc.ErrorMatches, `fetching plan of container "waltz": boom`)
}

func (s *containerSuite) TestReplacePlan(c *gc.C) {
	defer s.setupMocks(c).Finish()

	layer := plan.Build(&database.Connection{Host: "h", Port: 5432, Database: "d", User: "u", Password: "p"})
	s.client.EXPECT().AddLayer(gomock.Any()).DoAndReturn(func(opts *client.AddLayerOptions) error {
		c.Check(opts.Combine, jc.IsTrue)
		c.Check(opts.Label, gc.Equals, "waltz")
		parsed, err := plan.Parse(opts.LayerData)
		c.Assert(err, jc.ErrorIsNil)
		c.Check(parsed.Service("waltz").Equal(layer.Service("waltz")), jc.IsTrue)
		return nil
	})

	err := s.container.ReplacePlan(layer)
	c.Assert(err, jc.ErrorIsNil)
}

func (s *containerSuite) TestReplacePlanInvalid(c *gc.C) {
	defer s.setupMocks(c).Finish()

	err := s.container.ReplacePlan(plan.Plan{Services: map[string]*plan.Service{
		"waltz": {Override: plan.ReplaceOverride},
	}})
	c.Assert(err, gc.ErrorMatches, `service "waltz" with empty command not valid`)
}

func (s *containerSuite) TestStartWaitsForChange(c *gc.C) {
	defer s.setupMocks(c).Finish()

	gomock.InOrder(
		s.client.EXPECT().Start(&client.ServiceOptions{Names: []string{"waltz"}}).Return("42", nil),
		s.client.EXPECT().WaitChange("42", gomock.Any()).Return(&client.Change{ID: "42", Ready: true}, nil),
	)
	c.Assert(s.container.Start("waltz"), jc.ErrorIsNil)
}

func (s *containerSuite) TestStopChangeError(c *gc.C) {
	defer s.setupMocks(c).Finish()

	gomock.InOrder(
		s.client.EXPECT().Stop(&client.ServiceOptions{Names: []string{"waltz"}}).Return("7", nil),
		s.client.EXPECT().WaitChange("7", gomock.Any()).Return(&client.Change{ID: "7", Ready: true, Err: "timed out"}, nil),
	)
	err := s.container.Stop("waltz")
	c.Assert(err, gc.ErrorMatches, `cannot stop service "waltz": timed out`)
}

func (s *containerSuite) TestRestartError(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.client.EXPECT().Restart(gomock.Any()).Return("", errors.New("boom"))
	err := s.container.Restart("waltz")
	c.Assert(err, gc.ErrorMatches, `cannot restart service "waltz": boom`)
}

func (s *containerSuite) TestIsRunning(c *gc.C) {
	defer s.setupMocks(c).Finish()

	opts := &client.ServicesOptions{Names: []string{"waltz"}}
	gomock.InOrder(
		s.client.EXPECT().Services(opts).Return([]*client.ServiceInfo{{Name: "waltz", Current: client.StatusActive}}, nil),
		s.client.EXPECT().Services(opts).Return([]*client.ServiceInfo{{Name: "waltz", Current: client.StatusInactive}}, nil),
		s.client.EXPECT().Services(opts).Return(nil, nil),
	)
	for _, expect := range []bool{true, false, false} {
		running, err := s.container.IsRunning("waltz")
		c.Assert(err, jc.ErrorIsNil)
		c.Check(running, gc.Equals, expect)
	}
}
