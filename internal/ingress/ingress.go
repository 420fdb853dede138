// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package ingress builds the request published to nginx-ingress-integrator
// over the ingress relation.
package ingress

import (
	"strconv"

	"github.com/juju/errors"
	"github.com/juju/names/v5"
)

// RelationName is the charm endpoint the ingress provider relates to.
const RelationName = "ingress"

const (
	serviceHostnameKey = "service-hostname"
	serviceNameKey     = "service-name"
	servicePortKey     = "service-port"
)

// Request asks the ingress provider to route a hostname to a service.
type Request struct {
	ServiceHostname string
	ServiceName     string
	ServicePort     int
}

// NewRequest returns the request routing hostname to the application's
// Kubernetes service on port.
func NewRequest(hostname, application string, port int) (Request, error) {
	if !names.IsValidApplication(application) {
		return Request{}, errors.NotValidf("application name %q", application)
	}
	if hostname == "" {
		hostname = application
	}
	if port < 1 || port > 65535 {
		return Request{}, errors.NotValidf("service port %d", port)
	}
	return Request{
		ServiceHostname: hostname,
		ServiceName:     application,
		ServicePort:     port,
	}, nil
}

// Data returns the relation settings for the request.
func (r Request) Data() map[string]string {
	return map[string]string{
		serviceHostnameKey: r.ServiceHostname,
		serviceNameKey:     r.ServiceName,
		servicePortKey:     strconv.Itoa(r.ServicePort),
	}
}
