// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package kubernetes patches the application's Kubernetes service so that
// it exposes the Waltz web port.
package kubernetes

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	core "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	meta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

var logger = loggo.GetLogger("finos-waltz.kubernetes")

const (
	// LabelApplication is the label Juju selects application pods by.
	LabelApplication = "app.kubernetes.io/name"

	// LabelManagedBy marks resources created by this charm.
	LabelManagedBy = "app.kubernetes.io/managed-by"
)

// ServicePatcher keeps a port open on an application's service.
type ServicePatcher struct {
	client    kubernetes.Interface
	namespace string
}

// NewServicePatcher returns a ServicePatcher working in namespace.
func NewServicePatcher(client kubernetes.Interface, namespace string) *ServicePatcher {
	return &ServicePatcher{client: client, namespace: namespace}
}

// NewInClusterServicePatcher returns a ServicePatcher using the service
// account the charm pod runs with.
func NewInClusterServicePatcher(namespace string) (*ServicePatcher, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, errors.Annotate(err, "reading in-cluster config")
	}
	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewServicePatcher(client, namespace), nil
}

// EnsurePort makes the application's service expose port under the given
// name, creating the service if it does not exist. Other ports are kept.
func (p *ServicePatcher) EnsurePort(ctx context.Context, application, name string, port int32) error {
	if p.namespace == "" {
		return errors.NotValidf("empty namespace")
	}
	wanted := core.ServicePort{
		Name:       name,
		Port:       port,
		TargetPort: intstr.FromInt32(port),
		Protocol:   core.ProtocolTCP,
	}

	api := p.client.CoreV1().Services(p.namespace)
	existing, err := api.Get(ctx, application, meta.GetOptions{})
	if k8serrors.IsNotFound(err) {
		spec := &core.Service{
			ObjectMeta: meta.ObjectMeta{
				Name: application,
				Labels: map[string]string{
					LabelApplication: application,
					LabelManagedBy:   "juju",
				},
			},
			Spec: core.ServiceSpec{
				Selector: map[string]string{LabelApplication: application},
				Type:     core.ServiceTypeClusterIP,
				Ports:    []core.ServicePort{wanted},
			},
		}
		logger.Infof("creating service %q exposing port %d", application, port)
		_, err = api.Create(ctx, spec, meta.CreateOptions{})
		return errors.Annotatef(err, "creating service %q", application)
	}
	if err != nil {
		return errors.Annotatef(err, "getting service %q", application)
	}

	ports := make([]core.ServicePort, 0, len(existing.Spec.Ports)+1)
	for _, sp := range existing.Spec.Ports {
		if sp.Name == name || sp.Port == port {
			if samePort(sp, wanted) {
				logger.Debugf("service %q already exposes port %d", application, port)
				return nil
			}
			continue
		}
		ports = append(ports, sp)
	}
	existing.Spec.Ports = append(ports, wanted)

	logger.Infof("patching service %q to expose port %d", application, port)
	_, err = api.Update(ctx, existing, meta.UpdateOptions{})
	return errors.Annotatef(err, "updating service %q", application)
}

func samePort(a, b core.ServicePort) bool {
	return a.Name == b.Name &&
		a.Port == b.Port &&
		a.TargetPort == b.TargetPort &&
		a.Protocol == b.Protocol
}
