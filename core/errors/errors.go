// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package errors

import (
	"github.com/juju/errors"
)

const (
	// PlatformUnavailable describes a failure to talk to the Juju agent
	// (through hook tools) or to Pebble in the workload container. These
	// failures are transient from the charm's point of view; retrying is
	// left to the hook dispatcher.
	PlatformUnavailable = errors.ConstError("platform unavailable")
)
