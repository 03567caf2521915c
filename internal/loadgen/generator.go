// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

// Package loadgen generates realistic mock log records for exercising the
// pipeline: HTTP access logs, SQL queries, and cache operations in weighted
// proportions.
package loadgen

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

// Log shapes the generator produces, weighted 50/30/20.
const (
	shapeHTTP  = "http"
	shapeSQL   = "sql"
	shapeCache = "cache"
)

var endpoints = []string{
	"/api/v1/users",
	"/api/v1/orders",
	"/api/v1/products",
	"/api/v1/cart",
	"/health",
}

var methods = []string{"GET", "POST", "PUT", "DELETE"}

var queryTemplates = []string{
	"SELECT * FROM users WHERE id = %d;",
	"INSERT INTO orders (user_id, total) VALUES (%d, %d);",
	"UPDATE products SET stock = stock - %d WHERE id = %d;",
	"DELETE FROM cart WHERE user_id = %d;",
}

var cacheOps = []string{"GET", "SET", "DEL", "EXPIRE"}

// statusWeights mirror production access log distribution: mostly 2xx with
// a tail of client and server errors.
var statusWeights = []struct {
	status int
	weight int
}{
	{200, 60},
	{201, 10},
	{400, 5},
	{401, 5},
	{403, 5},
	{404, 10},
	{500, 5},
}

// Generator produces mock log records. Not safe for concurrent use; give
// each worker its own Generator.
type Generator struct {
	rng         *rand.Rand
	service     string
	environment string
	domain      string
}

// Options configures a Generator.
type Options struct {
	Seed        int64  // 0 means time-based
	Service     string // service.name on every record
	Environment string // deployment.environment on every record
	Domain      string // event.domain on every record
}

// New creates a generator. A fixed seed makes the output deterministic.
func New(opts Options) *Generator {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.Service == "" {
		opts.Service = "elkhound-demo"
	}
	if opts.Environment == "" {
		opts.Environment = "dev"
	}
	if opts.Domain == "" {
		opts.Domain = "dictation_backend"
	}
	return &Generator{
		rng:         rand.New(rand.NewSource(seed)),
		service:     opts.Service,
		environment: opts.Environment,
		domain:      opts.Domain,
	}
}

// Next produces one validated record.
func (g *Generator) Next() (logattr.Record, error) {
	var body string
	var attrs map[string]any

	switch g.pickShape() {
	case shapeHTTP:
		body, attrs = g.httpLog()
	case shapeSQL:
		body, attrs = g.sqlLog()
	default:
		body, attrs = g.cacheLog()
	}

	attrs[logattr.KeyServiceName] = g.service
	attrs[logattr.KeyEnvironment] = g.environment
	attrs[logattr.KeyEventDomain] = g.domain

	return logattr.Process(body, attrs)
}

// pickShape selects http/sql/cache with weights 50/30/20.
func (g *Generator) pickShape() string {
	switch n := g.rng.Intn(100); {
	case n < 50:
		return shapeHTTP
	case n < 80:
		return shapeSQL
	default:
		return shapeCache
	}
}

func (g *Generator) httpLog() (string, map[string]any) {
	method := methods[g.rng.Intn(len(methods))]
	endpoint := endpoints[g.rng.Intn(len(endpoints))]
	status := g.pickStatus()
	responseTime := 0.01 + g.rng.Float64()*1.49 // seconds

	attrs := map[string]any{
		"log.type":                  shapeHTTP,
		"client.ip":                 g.fakeIP(),
		"http.request.method":       method,
		"url.path":                  endpoint,
		"http.response.status_code": status,
		"event.duration":            int64(responseTime * float64(time.Second)),
	}

	var body string
	switch {
	case status >= 500:
		attrs[logattr.KeyLogLevel] = string(logattr.SeverityError)
		attrs[logattr.KeyEventType] = string(logattr.TypeError)
		body = fmt.Sprintf("request failed %s %s - status %d", method, endpoint, status)
	case status >= 400:
		attrs[logattr.KeyLogLevel] = string(logattr.SeverityWarn)
		attrs[logattr.KeyEventType] = string(logattr.TypeAccess)
		body = fmt.Sprintf("client error %s %s - status %d", method, endpoint, status)
	case responseTime > 1.0:
		attrs[logattr.KeyLogLevel] = string(logattr.SeverityWarn)
		attrs[logattr.KeyEventType] = string(logattr.TypePerformance)
		body = fmt.Sprintf("slow request %s %s - %.3fs", method, endpoint, responseTime)
	case endpoint == "/health":
		attrs[logattr.KeyLogLevel] = string(logattr.SeverityDebug)
		attrs[logattr.KeyEventType] = string(logattr.TypeAccess)
		body = fmt.Sprintf("health check %s %s", method, endpoint)
	default:
		attrs[logattr.KeyLogLevel] = string(logattr.SeverityInfo)
		attrs[logattr.KeyEventType] = string(logattr.TypeAccess)
		body = fmt.Sprintf("request %s %s", method, endpoint)
	}
	return body, attrs
}

func (g *Generator) sqlLog() (string, map[string]any) {
	userID := 1 + g.rng.Intn(1000)
	value := 1 + g.rng.Intn(100)
	tmpl := queryTemplates[g.rng.Intn(len(queryTemplates))]

	var query string
	switch tmpl {
	case queryTemplates[1], queryTemplates[2]:
		query = fmt.Sprintf(tmpl, userID, value)
	default:
		query = fmt.Sprintf(tmpl, userID)
	}
	duration := 1 + g.rng.Float64()*499 // ms

	attrs := map[string]any{
		"log.type":       shapeSQL,
		"user.name":      fmt.Sprintf("user_%d", userID),
		"db.statement":   query,
		"event.duration": int64(duration * float64(time.Millisecond)),
	}

	var body string
	switch {
	case duration > 400:
		attrs[logattr.KeyLogLevel] = string(logattr.SeverityError)
		attrs[logattr.KeyEventType] = string(logattr.TypeError)
		body = fmt.Sprintf("query timeout - %.2fms", duration)
	case duration > 200:
		attrs[logattr.KeyLogLevel] = string(logattr.SeverityWarn)
		attrs[logattr.KeyEventType] = string(logattr.TypePerformance)
		body = fmt.Sprintf("slow query - %.2fms", duration)
	default:
		level := logattr.SeverityInfo
		if tmpl == queryTemplates[0] {
			level = logattr.SeverityDebug
		}
		attrs[logattr.KeyLogLevel] = string(level)
		attrs[logattr.KeyEventType] = string(logattr.TypeAccess)
		body = "query executed"
	}
	return body, attrs
}

func (g *Generator) cacheLog() (string, map[string]any) {
	op := cacheOps[g.rng.Intn(len(cacheOps))]
	key := fmt.Sprintf("cache:%d", 1+g.rng.Intn(1000))
	duration := 0.1 + g.rng.Float64()*49.9 // ms

	attrs := map[string]any{
		"log.type":       shapeCache,
		"cache.op":       op,
		"cache.key":      key,
		"event.duration": int64(duration * float64(time.Millisecond)),
	}

	var body string
	switch {
	case duration > 40:
		attrs[logattr.KeyLogLevel] = string(logattr.SeverityError)
		attrs[logattr.KeyEventType] = string(logattr.TypeError)
		body = fmt.Sprintf("cache %s operation failed - %.2fms", op, duration)
	case duration > 20:
		attrs[logattr.KeyLogLevel] = string(logattr.SeverityWarn)
		attrs[logattr.KeyEventType] = string(logattr.TypePerformance)
		body = fmt.Sprintf("cache %s operation slow - %.2fms", op, duration)
	default:
		level := logattr.SeverityDebug
		if op == "DEL" {
			level = logattr.SeverityInfo
		}
		attrs[logattr.KeyLogLevel] = string(level)
		attrs[logattr.KeyEventType] = string(logattr.TypeAccess)
		body = fmt.Sprintf("cache %s operation", op)
	}
	return body, attrs
}

func (g *Generator) pickStatus() int {
	total := 0
	for _, sw := range statusWeights {
		total += sw.weight
	}
	n := g.rng.Intn(total)
	for _, sw := range statusWeights {
		if n < sw.weight {
			return sw.status
		}
		n -= sw.weight
	}
	return 200
}

func (g *Generator) fakeIP() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		1+g.rng.Intn(223), g.rng.Intn(256), g.rng.Intn(256), 1+g.rng.Intn(254))
}
