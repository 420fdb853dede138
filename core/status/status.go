// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package status

// Status represents the workload status of the charm's unit, as reported
// to Juju with status-set.
type Status string

// String returns a string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// StatusInfo holds a Status and associated information.
type StatusInfo struct {
	Status  Status
	Message string
}

// StatusSetter represents a type whose status can be set.
type StatusSetter interface {
	// SetStatus reports the unit's workload status to Juju.
	SetStatus(StatusInfo) error
}

const (
	// Unknown is set when:
	// A unit-agent has finished calling install, config-changed, and start,
	// but the charm has not called status-set yet.
	Unknown Status = "unknown"

	// Maintenance is set when:
	// The unit is not yet providing services, but is actively doing stuff
	// in preparation for providing those services.
	// This is a "spinning" state, not an error state.
	Maintenance Status = "maintenance"

	// Waiting is set when:
	// The unit is unable to progress to an active state because something
	// it depends on, such as the workload container, is not yet available.
	Waiting Status = "waiting"

	// Blocked is set when:
	// The unit needs manual intervention to get back to the Running state,
	// typically by relating it to a database.
	Blocked Status = "blocked"

	// Active is set when:
	// The unit believes it is correctly offering all the services it has
	// been asked to offer.
	Active Status = "active"
)

const (
	// MessageWaitForPebble is set with Waiting while Pebble in the
	// workload container cannot be reached.
	MessageWaitForPebble = "waiting for Pebble in workload container"

	// MessageNeedDatabase is set with Blocked while no complete database
	// connection is available.
	MessageNeedDatabase = "need database relation"

	// MessageConfiguringUnit is set with Maintenance while the charm
	// prepares Kubernetes resources for the unit.
	MessageConfiguringUnit = "configuring workload"
)

// ValidWorkloadStatus returns true if status has a valid value (that is to say,
// a value that it's OK to set with status-set) for units.
func ValidWorkloadStatus(status Status) bool {
	switch status {
	case
		Blocked,
		Maintenance,
		Waiting,
		Active:
		return true
	default:
		return false
	}
}
