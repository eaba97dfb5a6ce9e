//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the taxa project using Mage.
//
// Usage:
//
//	mage build          Compile the taxa binary to bin/
//	mage test:all       Run all tests
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Write a coverage profile and print the summary
//	mage fmt            Fail on files that need gofmt
//	mage vet            Run go vet
//	mage lint           Run fmt, vet, then golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install taxa to GOPATH/bin
//	mage stats          Print Go line counts as one JSON record
package main

import "fmt"

func logf(format string, args ...any) {
	fmt.Printf("mage: "+format+"\n", args...)
}
