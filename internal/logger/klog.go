// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package logger

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/juju/loggo/v2"
	"k8s.io/klog/v2"
)

// klogSink is an adapter for the Kubernetes logger onto loggo, so that
// client-go output goes through the charm's logging.
type klogSink struct {
	logger loggo.Logger
	name   string
	values []interface{}
}

// NewKlogSink returns a logr.LogSink writing to the given loggo logger.
func NewKlogSink(logger loggo.Logger) logr.LogSink {
	return &klogSink{logger: logger}
}

// InstallKlog routes klog output to loggo.
func InstallKlog() {
	klog.SetLogger(logr.New(NewKlogSink(loggo.GetLogger("finos-waltz.kubernetes.klog"))))
}

// Init see https://pkg.go.dev/github.com/go-logr/logr#LogSink
func (k *klogSink) Init(logr.RuntimeInfo) {}

// Enabled see https://pkg.go.dev/github.com/go-logr/logr#LogSink
func (k *klogSink) Enabled(level int) bool {
	if level > 0 {
		return k.logger.IsDebugEnabled()
	}
	return k.logger.IsInfoEnabled()
}

// Info see https://pkg.go.dev/github.com/go-logr/logr#LogSink
func (k *klogSink) Info(level int, msg string, keysAndValues ...interface{}) {
	if level > 0 {
		k.logger.Debugf("%s", k.format(msg, keysAndValues))
		return
	}
	k.logger.Infof("%s", k.format(msg, keysAndValues))
}

// Error see https://pkg.go.dev/github.com/go-logr/logr#LogSink
func (k *klogSink) Error(err error, msg string, keysAndValues ...interface{}) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	k.logger.Errorf("%s", k.format(msg, keysAndValues))
}

// WithValues see https://pkg.go.dev/github.com/go-logr/logr#LogSink
func (k *klogSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	values := make([]interface{}, 0, len(k.values)+len(keysAndValues))
	values = append(values, k.values...)
	values = append(values, keysAndValues...)
	return &klogSink{logger: k.logger, name: k.name, values: values}
}

// WithName see https://pkg.go.dev/github.com/go-logr/logr#LogSink
func (k *klogSink) WithName(name string) logr.LogSink {
	if k.name != "" {
		name = k.name + "/" + name
	}
	return &klogSink{logger: k.logger, name: name, values: k.values}
}

func (k *klogSink) format(msg string, keysAndValues []interface{}) string {
	var b strings.Builder
	if k.name != "" {
		b.WriteString(k.name)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	all := append(append([]interface{}{}, k.values...), keysAndValues...)
	for i := 0; i < len(all); i += 2 {
		if i+1 < len(all) {
			fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
		} else {
			fmt.Fprintf(&b, " %v", all[i])
		}
	}
	return b.String()
}
