// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hookenv_test

import (
	"fmt"
	"reflect"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/utils/v4/exec"
	"github.com/kballard/go-shellquote"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"

	coreerrors "github.com/canonical/finos-waltz-k8s-operator/core/errors"
	corestatus "github.com/canonical/finos-waltz-k8s-operator/core/status"
	"github.com/canonical/finos-waltz-k8s-operator/internal/hookenv"
)

type toolsSuite struct {
	runner *MockCommandRunner
	tools  *hookenv.Tools
}

var _ = gc.Suite(&toolsSuite{})

func (s *toolsSuite) setupMocks(c *gc.C) *gomock.Controller {
	ctrl := gomock.NewController(c)
	s.runner = NewMockCommandRunner(ctrl)
	s.tools = hookenv.NewTools(s.runner)
	return ctrl
}

// commandMatcher matches RunParams whose shell command splits into args.
type commandMatcher struct {
	args []string
}

func command(args ...string) gomock.Matcher {
	return commandMatcher{args: args}
}

func (m commandMatcher) Matches(x interface{}) bool {
	params, ok := x.(exec.RunParams)
	if !ok {
		return false
	}
	args, err := shellquote.Split(params.Commands)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(args, m.args)
}

func (m commandMatcher) String() string {
	return fmt.Sprintf("runs %q", m.args)
}

func (s *toolsSuite) expect(stdout string, args ...string) {
	s.runner.EXPECT().RunCommands(command(args...)).Return(&exec.ExecResponse{Stdout: []byte(stdout)}, nil)
}

func (s *toolsSuite) TestRelationIDs(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.expect(`["db:3","db:7"]`, "relation-ids", "--format=json", "db")

	ids, err := s.tools.RelationIDs("db")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(ids, jc.DeepEquals, []string{"db:3", "db:7"})
}

func (s *toolsSuite) TestRelationUnits(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.expect(`["postgresql-k8s/0"]`, "relation-list", "--format=json", "-r", "db:3")

	units, err := s.tools.RelationUnits("db:3")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(units, jc.DeepEquals, []string{"postgresql-k8s/0"})
}

func (s *toolsSuite) TestRelationData(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.expect(`{"database":"finos-waltz-k8s","master":"host=h port=5432"}`,
		"relation-get", "--format=json", "-r", "db:3", "-", "postgresql-k8s/0")
	s.expect("", "relation-get", "--format=json", "-r", "db:3", "--app", "-", "postgresql-k8s")

	data, err := s.tools.RelationData("db:3", "postgresql-k8s/0", false)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(data, jc.DeepEquals, map[string]string{
		"database": "finos-waltz-k8s",
		"master":   "host=h port=5432",
	})

	data, err = s.tools.RelationData("db:3", "postgresql-k8s", true)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(data, gc.HasLen, 0)
}

func (s *toolsSuite) TestSetRelationData(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.expect("", "relation-set", "-r", "ingress:4", "--app",
		"service-hostname=waltz.local", "service-name=finos-waltz-k8s", "service-port=8080")

	err := s.tools.SetRelationData("ingress:4", true, map[string]string{
		"service-port":     "8080",
		"service-name":     "finos-waltz-k8s",
		"service-hostname": "waltz.local",
	})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *toolsSuite) TestSetRelationDataEmpty(c *gc.C) {
	defer s.setupMocks(c).Finish()

	c.Assert(s.tools.SetRelationData("db:3", false, nil), jc.ErrorIsNil)
}

func (s *toolsSuite) TestIsLeader(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.expect("true\n", "is-leader", "--format=json")

	leader, err := s.tools.IsLeader()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(leader, jc.IsTrue)
}

func (s *toolsSuite) TestConfig(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.expect(`{"external-hostname":"waltz.example.com"}`, "config-get", "--format=json")

	cfg, err := s.tools.Config()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cfg, jc.DeepEquals, map[string]interface{}{"external-hostname": "waltz.example.com"})
}

func (s *toolsSuite) TestSetStatus(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.expect("", "status-set", "blocked", "need database relation")

	err := s.tools.SetStatus(corestatus.StatusInfo{Status: corestatus.Blocked, Message: "need database relation"})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *toolsSuite) TestSetStatusActiveEmptyMessage(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.expect("", "status-set", "active", "")

	err := s.tools.SetStatus(corestatus.StatusInfo{Status: corestatus.Active})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *toolsSuite) TestSetStatusInvalid(c *gc.C) {
	defer s.setupMocks(c).Finish()

	err := s.tools.SetStatus(corestatus.StatusInfo{Status: corestatus.Unknown})
	c.Assert(err, gc.ErrorMatches, `workload status "unknown" not valid`)
}

func (s *toolsSuite) TestLog(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.expect("", "juju-log", "--log-level", "WARNING", "it's $HOME; `rm -rf`")

	c.Assert(s.tools.Log("WARNING", "it's $HOME; `rm -rf`"), jc.ErrorIsNil)
}

func (s *toolsSuite) TestNonZeroExitIsPlatformUnavailable(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.runner.EXPECT().RunCommands(command("relation-ids", "--format=json", "db")).Return(&exec.ExecResponse{
		Code:   1,
		Stderr: []byte("ERROR connection is shut down\n"),
	}, nil)

	_, err := s.tools.RelationIDs("db")
	c.Assert(err, gc.ErrorMatches, "relation-ids failed with exit code 1: ERROR connection is shut down")
	c.Check(errors.Is(err, coreerrors.PlatformUnavailable), jc.IsTrue)
}

func (s *toolsSuite) TestRunnerErrorIsPlatformUnavailable(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.runner.EXPECT().RunCommands(gomock.Any()).Return(nil, errors.New("fork failed"))

	_, err := s.tools.IsLeader()
	c.Assert(err, gc.ErrorMatches, "running is-leader: fork failed")
	c.Check(errors.Is(err, coreerrors.PlatformUnavailable), jc.IsTrue)
}

func (s *toolsSuite) TestBadJSON(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.expect("{", "config-get", "--format=json")

	_, err := s.tools.Config()
	c.Assert(err, gc.ErrorMatches, "cannot parse config-get output: .*")
}
