// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package stories

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tomtom215/soapbox/internal/objectstore"
)

// maxAttachmentBytes is Discord's upload limit for bots without boosts.
const maxAttachmentBytes = 25 << 20

// stagedFile is an object copied to local disk for the length of one post.
type stagedFile struct {
	path        string
	name        string
	contentType string
	file        *os.File
}

// stageObject downloads key into a temp file under dir.
func stageObject(ctx context.Context, store objectstore.Store, dir, key string) (*stagedFile, error) {
	rc, obj, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	if obj.Size > maxAttachmentBytes {
		return nil, fmt.Errorf("%s is %d bytes, over the %d byte attachment limit", key, obj.Size, maxAttachmentBytes)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	name := path.Base(key)
	f, err := os.CreateTemp(dir, "thumb-*"+filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	s := &stagedFile{path: f.Name(), name: name, contentType: obj.ContentType}

	n, err := io.Copy(f, io.LimitReader(rc, maxAttachmentBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxAttachmentBytes {
		err = fmt.Errorf("%s exceeds the %d byte attachment limit", key, maxAttachmentBytes)
	}
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("stage %s: %w", key, err)
	}

	if s.contentType == "" {
		s.contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	return s, nil
}

// Open returns a reader over the staged bytes. Release closes it.
func (s *stagedFile) Open() (io.Reader, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	s.file = f
	return f, nil
}

// Release closes and removes the temp file. Safe to call more than once.
func (s *stagedFile) Release() {
	if s == nil {
		return
	}
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	if s.path != "" {
		_ = os.Remove(s.path)
		s.path = ""
	}
}
