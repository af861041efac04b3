// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Package testinfra provides container-backed infrastructure for
// integration tests. Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/testinfra/...
//
// # MinIO Container
//
// MinIOContainer runs a throwaway S3-compatible server with one bucket
// already created, so the real objectstore.S3Store can be exercised
// end to end:
//
//	minio, err := testinfra.NewMinIOContainer(ctx, testinfra.WithBucket("stories-test"))
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, minio.Container)
//
//	store, err := objectstore.NewS3Store(minio.StorageConfig())
//
// Tests call SkipIfNoDocker first so they degrade to a skip on machines
// without a Docker daemon.
package testinfra
