// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Command finos-waltz-k8s is the finos-waltz-k8s charm. The charm's
// dispatch script runs it once per hook.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"

	"github.com/canonical/finos-waltz-k8s-operator/core/hooks"
	"github.com/canonical/finos-waltz-k8s-operator/internal/charm"
	"github.com/canonical/finos-waltz-k8s-operator/internal/hookenv"
	"github.com/canonical/finos-waltz-k8s-operator/internal/kubernetes"
	"github.com/canonical/finos-waltz-k8s-operator/internal/logger"
	"github.com/canonical/finos-waltz-k8s-operator/internal/pebble"
)

var log = loggo.GetLogger("finos-waltz.cmd")

const (
	// exitErr is returned when the hook failed and should be retried.
	exitErr = 1
	// exitUsage is returned when the command line is invalid.
	exitUsage = 2

	// workloadContainer is the container Waltz runs in, as named in
	// metadata.yaml.
	workloadContainer = "waltz"
)

type options struct {
	loggingConfig string
	socketDir     string
	hook          string
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := gnuflag.NewFlagSet(args[0], gnuflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.loggingConfig, "logging-config", "<root>=INFO", "logging configuration")
	fs.StringVar(&opts.socketDir, "pebble-socket-dir", pebble.DefaultSocketDir, "directory holding the workload Pebble sockets")
	fs.StringVar(&opts.hook, "hook", "", "hook to run instead of JUJU_DISPATCH_PATH")
	if err := fs.Parse(true, args[1:]); err != nil {
		return options{}, err
	}
	if len(fs.Args()) > 0 {
		return options{}, errors.Errorf("unrecognized args: %q", fs.Args())
	}
	return opts, nil
}

// Main runs the charm for the current hook and returns the exit code.
func Main(args []string) int {
	opts, err := parseArgs(args, os.Stderr)
	if err == gnuflag.ErrHelp {
		return 0
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUsage
	}
	if err := loggo.ConfigureLoggers(opts.loggingConfig); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUsage
	}
	if err := run(context.Background(), opts); err != nil {
		log.Errorf("%v", err)
		return exitErr
	}
	return 0
}

func run(ctx context.Context, opts options) error {
	hookCtx, err := hookenv.NewContextFromEnviron()
	if err != nil {
		return errors.Annotate(err, "reading hook context")
	}
	if opts.hook != "" {
		hookCtx.DispatchPath = opts.hook
	}

	tools := hookenv.NewTools(hookenv.DefaultRunner())
	if _, err := loggo.ReplaceDefaultWriter(logger.NewJujuLogWriter(tools)); err != nil {
		return errors.Trace(err)
	}
	logger.InstallKlog()

	hook, err := hooks.Parse(hookCtx.DispatchPath)
	if err != nil {
		// Hooks the charm has no handler for still converge.
		log.Debugf("%v", err)
		hook = hooks.Info{Name: hookCtx.DispatchPath}
	}

	if hook.Kind.IsWorkload() && hook.WorkloadName != workloadContainer {
		log.Warningf("%s is for container %q, converging %q", hook.Name, hook.WorkloadName, workloadContainer)
	}
	container, err := pebble.Open(opts.socketDir, workloadContainer)
	if err != nil {
		return errors.Trace(err)
	}

	c, err := charm.New(charm.Config{
		Context:   hookCtx,
		Platform:  tools,
		Container: container,
		NewServicePatcher: func() (charm.ServicePatcher, error) {
			patcher, err := kubernetes.NewInClusterServicePatcher(hookCtx.ModelName)
			if err != nil {
				return nil, errors.Trace(err)
			}
			return patcher, nil
		},
	})
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.Dispatch(ctx, hook))
}

func main() {
	os.Exit(Main(os.Args))
}
