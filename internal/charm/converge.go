// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	corestatus "github.com/canonical/finos-waltz-k8s-operator/core/status"
	"github.com/canonical/finos-waltz-k8s-operator/internal/database"
	"github.com/canonical/finos-waltz-k8s-operator/internal/plan"
	"github.com/canonical/finos-waltz-k8s-operator/internal/status"
	"github.com/canonical/finos-waltz-k8s-operator/internal/workload"
)

// Inputs is everything one convergence pass looks at.
type Inputs struct {
	// Connectable is whether Pebble in the workload container answered.
	Connectable bool

	// RelationData holds the database relation data bags, in the order
	// they are searched for a connection.
	RelationData []map[string]string

	// Container is only used when Connectable is true.
	Container workload.Container
}

// Outcome is the result of a convergence pass.
type Outcome struct {
	Connection *database.Connection
	Result     workload.Result
	Status     corestatus.StatusInfo

	// Err is set when the container could not be driven.
	Err error
}

// Converge computes the desired plan from the relation data, applies it
// to the container and derives the unit status.
func Converge(in Inputs) Outcome {
	if !in.Connectable {
		return Outcome{
			Status: status.Resolve(status.Inputs{}),
		}
	}

	conn := findConnection(in.RelationData)
	if conn == nil {
		logger.Debugf("no database connection in %d relation data bags", len(in.RelationData))
	} else {
		logger.Debugf("using database connection %s", conn)
	}
	result, err := workload.Reconcile(in.Container, plan.Build(conn))
	return Outcome{
		Connection: conn,
		Result:     result,
		Err:        err,
		Status: status.Resolve(status.Inputs{
			Connectable:   true,
			HasConnection: conn != nil,
			Result:        result,
			Err:           err,
		}),
	}
}

func findConnection(bags []map[string]string) *database.Connection {
	for _, data := range bags {
		if conn := database.Extract(data); conn != nil {
			return conn
		}
	}
	return nil
}
