// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreConnectionFailure     Code = "store.connection.failure"
	CodeStoreSchemaFailure         Code = "store.schema.failure"
	CodeStoreNodeUpsertFailure     Code = "store.node.upsert.failure"
	CodeStoreNodeUpsertInvalid     Code = "store.node.upsert.invalid_input"
	CodeStoreRelationUpsertFailure Code = "store.relation.upsert.failure"
	CodeStoreRelationUpsertInvalid Code = "store.relation.upsert.invalid_input"
	CodeStoreDeleteFailure         Code = "store.delete.failure"
	CodeStoreQueryFailure          Code = "store.query.failure"
	CodeStoreQueryInvalid          Code = "store.query.invalid_input"
	CodeStoreConfigInvalid         Code = "store.config.invalid_input"
	CodeStoreBackendUnsupported    Code = "store.backend.unsupported"
	CodeStoreDatabaseFailure       Code = "store.database.failure"
	CodeStoreNodeNotFound          Code = "store.node.get.not_found"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeExportDependencyMissing Code = "export.dependency.missing"
	CodeExportFormatInvalid     Code = "export.format.invalid"
	CodeExportRenderFailure     Code = "export.render.failure"
	CodeExportWriteFailure      Code = "export.write.failure"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerConfigInvalid   Code = "server.config.invalid"
	CodeServerStartFailure    Code = "server.start.failure"
	CodeServerShutdownFailure Code = "server.shutdown.failure"

	CodeCLIInputInvalid   Code = "cli.input.invalid"
	CodeCLISetupFailure   Code = "cli.setup.failure"
	CodeCLIConfirmMissing Code = "cli.confirm.invalid"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// FieldValue creates a structured error field.
func FieldValue(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Field is kept as the primary helper for terse callsites.
func Field(key string, value any) Attr {
	return FieldValue(key, value)
}

func FieldTable(value string) Attr {
	return Field("table", value)
}

func FieldNodeID(value string) Attr {
	return Field("node_id", value)
}

func FieldRelationID(value string) Attr {
	return Field("relation_id", value)
}

func FieldBackend(value string) Attr {
	return Field("backend", value)
}

func FieldFormat(value string) Attr {
	return Field("format", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

// IsMissingDependency reports whether err signals an optional external
// dependency (such as a renderer binary) that is not installed.
func IsMissingDependency(err error) bool {
	return reason(CodeOf(err)) == "missing"
}

// IsUnsupported reports whether err names a backend or feature this build
// does not provide.
func IsUnsupported(err error) bool {
	return reason(CodeOf(err)) == "unsupported"
}

func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsMissingDependency(err), IsUnsupported(err):
		return http.StatusNotImplemented
	case HasCode(err, CodeStoreConnectionFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
