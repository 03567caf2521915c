// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

//go:build tools

package tools

import (
	// Tool dependencies - these are kept in go.mod but not compiled into the binary
	_ "go.elastic.co/go-licence-detector"
)
