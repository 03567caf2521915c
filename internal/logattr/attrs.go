// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

// Package logattr enforces the log attribute contract: every log record
// shipped by elkhound must carry a small set of mandatory attributes with
// known values, and must never carry credential-like material.
package logattr

import (
	"fmt"
	"strings"
)

// Severity is the log level vocabulary, aligned with the OpenTelemetry
// SeverityNumber standard.
type Severity string

const (
	SeverityFatal Severity = "FATAL"
	SeverityError Severity = "ERROR"
	SeverityWarn  Severity = "WARN"
	SeverityInfo  Severity = "INFO"
	SeverityDebug Severity = "DEBUG"
	SeverityTrace Severity = "TRACE"
)

// EventDomain identifies the business or technical area a log belongs to.
type EventDomain string

const (
	DomainAuth              EventDomain = "auth"
	DomainSession           EventDomain = "session"
	DomainDictationFrontend EventDomain = "dictation_frontend"
	DomainDictationBackend  EventDomain = "dictation_backend"
	DomainWorklist          EventDomain = "worklist"
	DomainViewer            EventDomain = "viewer"
)

// EventType classifies what kind of event a log describes.
type EventType string

const (
	TypeAccess      EventType = "access"
	TypeError       EventType = "error"
	TypeAudit       EventType = "audit"
	TypeValidation  EventType = "validation"
	TypePerformance EventType = "performance"
	TypeSecurity    EventType = "security"
)

// EventCategory is the technical classification, usually inferred from the
// event domain rather than supplied by callers.
type EventCategory string

const (
	CategoryFrontend       EventCategory = "frontend"
	CategoryAuthentication EventCategory = "authentication"
	CategoryDatabase       EventCategory = "database"
	CategoryBackend        EventCategory = "backend"
	CategorySecurity       EventCategory = "security"
	CategoryInfrastructure EventCategory = "infrastructure"
)

// Well-known attribute keys.
const (
	KeyServiceName      = "service.name"
	KeyServiceVersion   = "service.version"
	KeyServiceNamespace = "service.namespace"
	KeyEnvironment      = "deployment.environment"
	KeyLogLevel         = "log.level"
	KeyEventDomain      = "event.domain"
	KeyEventType        = "event.type"
	KeyEventCategory    = "event.category"
	KeyHostName         = "host.name"
)

// MandatoryAttributes must be present and non-empty on every record.
var MandatoryAttributes = []string{
	KeyServiceName,
	KeyEnvironment,
	KeyLogLevel,
	KeyEventDomain,
	KeyEventType,
}

// ForbiddenKeywords must never appear anywhere in a record's attributes.
// Records whose attributes contain one are rejected outright; bodies are
// redacted instead (see Redact).
var ForbiddenKeywords = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"credit_card",
	"ssn",
	"national_id",
}

// ValidEnvironments lists the accepted deployment.environment values.
var ValidEnvironments = []string{"prod", "staging", "dev", "test"}

var validSeverities = map[string]struct{}{
	string(SeverityFatal): {},
	string(SeverityError): {},
	string(SeverityWarn):  {},
	string(SeverityInfo):  {},
	string(SeverityDebug): {},
	string(SeverityTrace): {},
}

var validDomains = map[string]struct{}{
	string(DomainAuth):              {},
	string(DomainSession):           {},
	string(DomainDictationFrontend): {},
	string(DomainDictationBackend):  {},
	string(DomainWorklist):          {},
	string(DomainViewer):            {},
}

var validTypes = map[string]struct{}{
	string(TypeAccess):      {},
	string(TypeError):       {},
	string(TypeAudit):       {},
	string(TypeValidation):  {},
	string(TypePerformance): {},
	string(TypeSecurity):    {},
}

// ParseSeverity normalizes a level string to a Severity. Unknown strings
// map to INFO so that sloppy upstream loggers still produce valid records.
func ParseSeverity(s string) Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FATAL", "CRITICAL", "PANIC":
		return SeverityFatal
	case "ERROR", "ERR":
		return SeverityError
	case "WARN", "WARNING":
		return SeverityWarn
	case "INFO":
		return SeverityInfo
	case "DEBUG":
		return SeverityDebug
	case "TRACE":
		return SeverityTrace
	default:
		return SeverityInfo
	}
}

// Validate checks an attribute map against the contract and returns a copy
// with no modifications applied. The returned map is always non-nil so
// callers can report partially validated attributes.
func Validate(attrs map[string]any) (map[string]any, error) {
	cleaned := make(map[string]any, len(attrs))
	for k, v := range attrs {
		cleaned[k] = v
	}

	for _, key := range MandatoryAttributes {
		v, ok := cleaned[key]
		if !ok || isEmpty(v) {
			return cleaned, fmt.Errorf("missing mandatory attribute: %s", key)
		}
	}

	level, _ := cleaned[KeyLogLevel].(string)
	if _, ok := validSeverities[level]; !ok {
		return cleaned, fmt.Errorf("invalid log.level: %v", cleaned[KeyLogLevel])
	}

	env, _ := cleaned[KeyEnvironment].(string)
	if !contains(ValidEnvironments, env) {
		return cleaned, fmt.Errorf("invalid deployment.environment: %v", cleaned[KeyEnvironment])
	}

	domain, _ := cleaned[KeyEventDomain].(string)
	if _, ok := validDomains[domain]; !ok {
		return cleaned, fmt.Errorf("invalid event.domain: %v", cleaned[KeyEventDomain])
	}

	typ, _ := cleaned[KeyEventType].(string)
	if _, ok := validTypes[typ]; !ok {
		return cleaned, fmt.Errorf("invalid event.type: %v", cleaned[KeyEventType])
	}

	if kw := findForbidden(cleaned); kw != "" {
		return cleaned, fmt.Errorf("forbidden keyword detected: %s", kw)
	}

	return cleaned, nil
}

// findForbidden scans attribute keys and stringified values for forbidden
// keywords, case-insensitively.
func findForbidden(attrs map[string]any) string {
	var b strings.Builder
	for k, v := range attrs {
		b.WriteString(strings.ToLower(k))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(fmt.Sprintf("%v", v)))
		b.WriteByte(' ')
	}
	haystack := b.String()
	for _, kw := range ForbiddenKeywords {
		if strings.Contains(haystack, kw) {
			return kw
		}
	}
	return ""
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
