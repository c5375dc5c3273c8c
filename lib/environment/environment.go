// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package environment captures the facts recorded at the top of every
// CircleBox envelope: a per-process session identifier, the platform,
// the embedding application's version, and the host it runs on.
package environment

import (
	"os"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/bureau-foundation/circlebox/lib/event"
)

// Unknown is reported for facts the host does not expose.
const Unknown = "unknown"

// Provider supplies environment facts. The runtime calls Capture once
// at Start.
type Provider interface {
	Capture() event.Environment
}

// Static returns the same environment every time. Bindings use it
// when the host application already knows its facts.
type Static event.Environment

// Capture returns the static environment.
func (static Static) Capture() event.Environment {
	return event.Environment(static)
}

// Host derives environment facts from the running process. The session
// identifier is generated on first Capture and reused afterwards, so
// every runtime started in one process shares a session.
type Host struct {
	AppVersion  string
	BuildNumber string

	once    sync.Once
	session string
}

// Capture implements Provider.
func (host *Host) Capture() event.Environment {
	host.once.Do(func() {
		host.session = uuid.NewString()
	})
	return event.Environment{
		SessionID:   host.session,
		Platform:    Platform(),
		AppVersion:  orUnknown(host.AppVersion),
		BuildNumber: orUnknown(host.BuildNumber),
		OSVersion:   OSVersion(),
		DeviceModel: DeviceModel(),
	}
}

// Platform returns "go-" followed by the operating system name.
func Platform() string {
	return "go-" + runtime.GOOS
}

// DeviceModel returns "<hostname>/<architecture>", falling back to the
// architecture alone when the hostname is unavailable.
func DeviceModel() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return Unknown + "/" + runtime.GOARCH
	}
	return hostname + "/" + runtime.GOARCH
}

func orUnknown(value string) string {
	if value == "" {
		return Unknown
	}
	return value
}
