/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package storage writes run artifacts to a filesystem or S3-compatible store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound indicates a missing object.
var ErrNotFound = errors.New("object not found")

// ObjectStore abstracts object storage operations.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// RunKey builds the object key of an artifact belonging to a plan run.
func RunKey(runID, name string) string {
	return path.Join("runs", runID, name)
}

func cleanKey(key string) (string, error) {
	key = path.Clean("/" + strings.TrimSpace(key))[1:]
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	return key, nil
}
