// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package status derives the unit's workload status from the outcome of a
// reconciliation pass. Nothing is remembered between passes.
package status

import (
	corestatus "github.com/canonical/finos-waltz-k8s-operator/core/status"
	"github.com/canonical/finos-waltz-k8s-operator/internal/workload"
)

// Inputs holds everything the status depends on.
type Inputs struct {
	// Connectable is whether Pebble in the workload container answered.
	Connectable bool

	// HasConnection is whether a complete database connection is known.
	HasConnection bool

	// Result and Err are the reconciliation outcome. They are ignored
	// unless the container was connectable and a connection known.
	Result workload.Result
	Err    error
}

// Resolve returns the status for the given inputs. Checks are made in
// priority order: container, database relation, reconciliation.
func Resolve(in Inputs) corestatus.StatusInfo {
	switch {
	case !in.Connectable:
		return corestatus.StatusInfo{
			Status:  corestatus.Waiting,
			Message: corestatus.MessageWaitForPebble,
		}
	case !in.HasConnection:
		return corestatus.StatusInfo{
			Status:  corestatus.Blocked,
			Message: corestatus.MessageNeedDatabase,
		}
	case in.Err != nil:
		return corestatus.StatusInfo{
			Status:  corestatus.Blocked,
			Message: in.Err.Error(),
		}
	case in.Result != workload.Applied && in.Result != workload.Unchanged:
		return corestatus.StatusInfo{
			Status:  corestatus.Blocked,
			Message: "service " + string(in.Result),
		}
	}
	return corestatus.StatusInfo{Status: corestatus.Active}
}
