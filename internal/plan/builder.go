// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package plan

import (
	"strconv"

	"github.com/juju/collections/set"

	"github.com/canonical/finos-waltz-k8s-operator/internal/database"
)

const (
	// ServiceName is the Pebble service running Waltz.
	ServiceName = "waltz"

	// Command runs the Liquibase migrations, then starts Waltz.
	Command = "/bin/sh -c 'docker-entrypoint.sh update run'"

	// User is the system user the service runs as.
	User = "waltz"

	// Port is the HTTP port Waltz listens on.
	Port = 8080

	layerSummary     = "waltz layer"
	layerDescription = "pebble config layer for waltz"

	dbScheme      = "waltz"
	fromEmail     = "help@finos.org"
	changelogFile = "/opt/waltz/liquibase/db.changelog-master.xml"
)

// Environment variable names understood by the Waltz image.
const (
	EnvDBHost        = "DB_HOST"
	EnvDBPort        = "DB_PORT"
	EnvDBName        = "DB_NAME"
	EnvDBUser        = "DB_USER"
	EnvDBPassword    = "DB_PASSWORD"
	EnvDBScheme      = "DB_SCHEME"
	EnvFromEmail     = "WALTZ_FROM_EMAIL"
	EnvChangelogFile = "CHANGELOG_FILE"
)

// EnvironmentKeys holds every key set on an enabled service.
var EnvironmentKeys = set.NewStrings(
	EnvDBHost,
	EnvDBPort,
	EnvDBName,
	EnvDBUser,
	EnvDBPassword,
	EnvDBScheme,
	EnvFromEmail,
	EnvChangelogFile,
)

// Build returns the desired plan for the given connection. Without a
// connection the service is still defined, but disabled and without
// environment.
func Build(conn *database.Connection) Plan {
	svc := &Service{
		Summary:  ServiceName,
		Override: ReplaceOverride,
		Command:  Command,
		User:     User,
		Startup:  StartupDisabled,
	}
	if conn != nil {
		svc.Startup = StartupEnabled
		svc.Environment = map[string]string{
			EnvDBHost:        conn.Host,
			EnvDBPort:        strconv.Itoa(conn.Port),
			EnvDBName:        conn.Database,
			EnvDBUser:        conn.User,
			EnvDBPassword:    conn.Password,
			EnvDBScheme:      dbScheme,
			EnvFromEmail:     fromEmail,
			EnvChangelogFile: changelogFile,
		}
	}
	return Plan{
		Summary:     layerSummary,
		Description: layerDescription,
		Services:    map[string]*Service{ServiceName: svc},
	}
}
