// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	modified    time.Time
}

// MemoryStore is an in-process Store. Listings are lexicographic and paged
// by PageSize so continuation handling is exercised like a real bucket.
type MemoryStore struct {
	mu       sync.RWMutex
	objects  map[string]*memoryObject
	pageSize int
	now      func() time.Time

	listErrs map[string]error
	getErrs  map[string]error
	listCall int
}

// NewMemoryStore creates an empty store returning at most pageSize keys per
// List call. pageSize <= 0 means 1000.
func NewMemoryStore(pageSize int) *MemoryStore {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &MemoryStore{
		objects:  make(map[string]*memoryObject),
		pageSize: pageSize,
		now:      time.Now,
		listErrs: make(map[string]error),
		getErrs:  make(map[string]error),
	}
}

// PutAt stores data under key with an explicit last-modified time.
func (m *MemoryStore) PutAt(key string, data []byte, modified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = &memoryObject{
		data:     append([]byte(nil), data...),
		modified: modified,
	}
}

// Touch updates the last-modified time of an existing key. It reports
// whether the key existed.
func (m *MemoryStore) Touch(key string, modified time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if ok {
		obj.modified = modified
	}
	return ok
}

// Remove deletes key.
func (m *MemoryStore) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
}

// FailList makes List calls for exactly prefix return err. A nil err clears it.
func (m *MemoryStore) FailList(prefix string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.listErrs, prefix)
		return
	}
	m.listErrs[prefix] = err
}

// FailGet makes Get calls for key return err. A nil err clears it.
func (m *MemoryStore) FailGet(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.getErrs, key)
		return
	}
	m.getErrs[key] = err
}

// ListCalls returns how many List calls have been served.
func (m *MemoryStore) ListCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listCall
}

// Metadata returns the user metadata stored with key.
func (m *MemoryStore) Metadata(key string) (map[string]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	return obj.metadata, true
}

// Keys returns every stored key in lexicographic order.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List implements Store. The continuation token is the last key of the
// previous page.
func (m *MemoryStore) List(ctx context.Context, prefix string, opts ListOptions) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.listCall++
	err := m.listErrs[prefix]
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	maxKeys := opts.MaxKeys
	if maxKeys <= 0 || maxKeys > m.pageSize {
		maxKeys = m.pageSize
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0)
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) && k > opts.ContinuationToken {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	page := &Page{}
	seenPrefix := make(map[string]bool)
	count := 0
	for _, k := range keys {
		if count == maxKeys {
			page.NextContinuationToken = lastEmitted(page)
			break
		}
		if opts.Delimiter != "" {
			rest := k[len(prefix):]
			if i := strings.Index(rest, opts.Delimiter); i >= 0 {
				cp := prefix + rest[:i+len(opts.Delimiter)]
				if !seenPrefix[cp] && cp > opts.ContinuationToken {
					seenPrefix[cp] = true
					page.CommonPrefixes = append(page.CommonPrefixes, cp)
					count++
				}
				continue
			}
		}
		obj := m.objects[k]
		page.Objects = append(page.Objects, Object{
			Key:          k,
			LastModified: obj.modified,
			Size:         int64(len(obj.data)),
			ContentType:  obj.contentType,
		})
		count++
	}
	return page, nil
}

// lastEmitted returns the lexicographically greatest key or common prefix on
// the page. Keys under an emitted common prefix sort after it, so a common
// prefix token is bumped past its whole subtree.
func lastEmitted(p *Page) string {
	last := ""
	if n := len(p.Objects); n > 0 {
		last = p.Objects[n-1].Key
	}
	if n := len(p.CommonPrefixes); n > 0 {
		if cp := p.CommonPrefixes[n-1] + "\xff"; cp > last {
			last = cp
		}
	}
	return last
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, Object{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.getErrs[key]; err != nil {
		return nil, Object{}, err
	}
	obj, ok := m.objects[key]
	if !ok {
		return nil, Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return memBody{bytes.NewReader(obj.data)}, Object{
		Key:          key,
		LastModified: obj.modified,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
	}, nil
}

// memBody is a seekable object body, like the S3 client's.
type memBody struct {
	*bytes.Reader
}

func (memBody) Close() error { return nil }

// Put implements Store. The object's last-modified time is the current time.
func (m *MemoryStore) Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body for %s: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("put %s: read %d bytes, expected %d", key, len(data), size)
	}

	var md map[string]string
	if len(opts.Metadata) > 0 {
		md = make(map[string]string, len(opts.Metadata))
		for k, v := range opts.Metadata {
			md[k] = v
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = &memoryObject{
		data:        data,
		contentType: opts.ContentType,
		metadata:    md,
		modified:    m.now(),
	}
	return nil
}

// Exists implements Store.
func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}
