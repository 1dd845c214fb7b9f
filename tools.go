//go:build tools
// +build tools

// Package tools tracks code generators (mockgen) as module dependencies.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
