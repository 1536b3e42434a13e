// process.go: process-derived selector data (spec §4.D "Process-derived").
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package selector

import (
	"os"
	"runtime"
)

// ProcessInfo is a snapshot of process identity consulted by the
// host/user/os_name/os_ver/app/prog/pid selectors. Captured once at
// engine init; callers needing fresher values (e.g. after a chroot)
// can build a new one and swap it into the formatter.
type ProcessInfo struct {
	Host   string
	User   string
	OSName string
	OSVer  string
	App    string
	Prog   string
	PID    int
}

// NewProcessInfo captures the current process's identity. OSVer has no
// portable stdlib source, so it is left blank unless the caller sets it
// explicitly after construction (e.g. from a platform-specific probe).
func NewProcessInfo() *ProcessInfo {
	host, _ := os.Hostname()
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	prog := "elog"
	if len(os.Args) > 0 {
		prog = os.Args[0]
	}
	return &ProcessInfo{
		Host:   host,
		User:   user,
		OSName: runtime.GOOS,
		App:    prog,
		Prog:   prog,
		PID:    os.Getpid(),
	}
}
