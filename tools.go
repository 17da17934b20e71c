//go:build tools
// +build tools

// Package tools pins the mockgen version used by go generate in contract/.
package lan_chat

import (
	_ "go.uber.org/mock/mockgen"
)
