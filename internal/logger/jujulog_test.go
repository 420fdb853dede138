// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package logger_test

import (
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/finos-waltz-k8s-operator/internal/logger"
)

type jujuLogSuite struct{}

var _ = gc.Suite(&jujuLogSuite{})

type logCall struct {
	level   string
	message string
}

type recordingSink struct {
	calls []logCall
	err   error
}

func (s *recordingSink) Log(level, message string) error {
	s.calls = append(s.calls, logCall{level: level, message: message})
	return s.err
}

func (s *jujuLogSuite) TestForwardsEntries(c *gc.C) {
	sink := &recordingSink{}
	ctx := loggo.NewContext(loggo.DEBUG)
	c.Assert(ctx.AddWriter("juju-log", logger.NewJujuLogWriter(sink)), jc.ErrorIsNil)

	log := ctx.GetLogger("finos-waltz.charm")
	log.Infof("handling %s", "config-changed")
	log.Criticalf("boom")
	log.Tracef("not enabled")

	c.Check(sink.calls, jc.DeepEquals, []logCall{
		{level: "INFO", message: "finos-waltz.charm: handling config-changed"},
		{level: "ERROR", message: "finos-waltz.charm: boom"},
	})
}

func (s *jujuLogSuite) TestSinkErrorDoesNotPanic(c *gc.C) {
	sink := &recordingSink{err: errors.New("juju-log not found")}
	w := logger.NewJujuLogWriter(sink)
	w.Write(loggo.Entry{Level: loggo.WARNING, Module: "finos-waltz", Message: "hello"})
	c.Check(sink.calls, gc.HasLen, 1)
}
