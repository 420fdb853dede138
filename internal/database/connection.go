// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package database reads the PostgreSQL connection published by the
// postgresql-k8s charm on the legacy "pgsql" db relation.
package database

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	// DatabaseKey is the relation key naming the database provisioned
	// for the application.
	DatabaseKey = "database"

	// MasterKey is the relation key holding the libpq style connection
	// string of the primary database.
	MasterKey = "master"
)

// Connection is a fully resolved database endpoint.
type Connection struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"dbname"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// String implements fmt.Stringer. The password is never included.
func (c Connection) String() string {
	return fmt.Sprintf("postgresql://%s@%s:%d/%s", c.User, c.Host, c.Port, c.Database)
}

var requiredFields = []string{"host", "port", "dbname", "user", "password"}

// Extract returns the connection described by the relation data, or nil
// if the data does not (yet) describe a complete one. A missing, partial
// or malformed connection string is not an error: the remote side simply
// has not finished setting up the database.
func Extract(data map[string]string) *Connection {
	fields, ok := parseConnectionString(data[MasterKey])
	if !ok {
		return nil
	}
	for _, name := range requiredFields {
		if fields[name] == "" {
			return nil
		}
	}

	var conn Connection
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       decimalPort,
		Result:           &conn,
	})
	if err != nil {
		return nil
	}
	if err := decoder.Decode(fields); err != nil {
		return nil
	}
	if conn.Port < 1 || conn.Port > 65535 {
		return nil
	}
	return &conn
}

// decimalPort decodes string values into int fields as unsigned 16 bit
// decimal numbers, the way libpq reads a port. Octal, hex, signs and
// digit separators are rejected.
func decimalPort(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Int {
		return data, nil
	}
	port, err := strconv.ParseUint(data.(string), 10, 16)
	if err != nil {
		return nil, err
	}
	return int(port), nil
}

// parseConnectionString splits "key=value key=value" pairs on whitespace,
// then each pair on its first "=". Later duplicates win.
func parseConnectionString(s string) (map[string]string, bool) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return nil, false
	}
	fields := make(map[string]string, len(tokens))
	for _, token := range tokens {
		key, value, ok := strings.Cut(token, "=")
		if !ok || key == "" {
			return nil, false
		}
		fields[key] = value
	}
	return fields, true
}
