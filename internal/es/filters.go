// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package es

// filterBuilder constructs Elasticsearch bool query clauses.
//
// Filter clauses use "should" with minimum_should_match for fields that may
// appear in different locations depending on the log format (OTel semconv
// vs. flat ECS-style documents).
type filterBuilder struct {
	must []map[string]any
}

func newFilterBuilder() *filterBuilder {
	return &filterBuilder{must: []map[string]any{}}
}

func (fb *filterBuilder) addMust(clause map[string]any) *filterBuilder {
	fb.must = append(fb.must, clause)
	return fb
}

// addServiceFilter matches the service name in both OTel and flat formats.
func (fb *filterBuilder) addServiceFilter(service string) *filterBuilder {
	if service == "" {
		return fb
	}
	return fb.addMust(map[string]any{
		"bool": map[string]any{
			"should": []map[string]any{
				{"term": map[string]any{"resource.attributes.service.name": service}},
				{"term": map[string]any{"service.name": service}},
			},
			"minimum_should_match": 1,
		},
	})
}

// addLevelFilter matches the severity in both OTel and flat formats.
func (fb *filterBuilder) addLevelFilter(level string) *filterBuilder {
	if level == "" {
		return fb
	}
	return fb.addMust(map[string]any{
		"bool": map[string]any{
			"should": []map[string]any{
				{"term": map[string]any{"severity_text": level}},
				{"term": map[string]any{"log.level": level}},
			},
			"minimum_should_match": 1,
		},
	})
}

// addDomainFilter matches the event.domain attribute in both formats.
func (fb *filterBuilder) addDomainFilter(domain string) *filterBuilder {
	if domain == "" {
		return fb
	}
	return fb.addMust(map[string]any{
		"bool": map[string]any{
			"should": []map[string]any{
				{"term": map[string]any{"attributes.event.domain": domain}},
				{"term": map[string]any{"event.domain": domain}},
			},
			"minimum_should_match": 1,
		},
	})
}

// addTimeRangeFilter adds a @timestamp range. gte/lte can be ES time
// expressions like "now-1h" or RFC3339 timestamps.
func (fb *filterBuilder) addTimeRangeFilter(gte, lte string) *filterBuilder {
	if gte == "" && lte == "" {
		return fb
	}
	timeRange := map[string]any{}
	if gte != "" {
		timeRange["gte"] = gte
	}
	if lte != "" {
		timeRange["lte"] = lte
	}
	return fb.addMust(map[string]any{
		"range": map[string]any{
			"@timestamp": timeRange,
		},
	})
}

// addQueryString adds a full-text query over the common message fields.
func (fb *filterBuilder) addQueryString(query string) *filterBuilder {
	if query == "" {
		return fb
	}
	return fb.addMust(map[string]any{
		"query_string": map[string]any{
			"query":            "*" + query + "*",
			"fields":           []string{"body.text", "body", "message"},
			"default_operator": "AND",
			"analyze_wildcard": true,
		},
	})
}

// build returns the completed bool query.
func (fb *filterBuilder) build() map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": fb.must,
			},
		},
	}
}
