// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package platform

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Post is one thread or message recorded by MockPoster.
type Post struct {
	ID             string
	Thread         bool
	ChannelID      string
	Title          string
	Content        string
	AttachmentName string
	AttachmentData []byte
}

// MockPoster is an in-memory Poster for tests. Created posts stay "live"
// until deleted, so tests can assert that at most one post per story exists.
type MockPoster struct {
	mu      sync.Mutex
	channel Channel
	live    map[string]Post
	created []Post
	deleted []string
	threads map[string]string // name -> id for FindThread

	fetchErr  error
	createErr error
	deleteErr error

	nextID      atomic.Int64
	createCalls atomic.Int32
	deleteCalls atomic.Int32
	fetchCalls  atomic.Int32
}

// NewMockPoster creates a mock whose channel is a forum when forum is true.
func NewMockPoster(channelID string, forum bool) *MockPoster {
	return &MockPoster{
		channel: Channel{ID: channelID, GuildID: "guild-1", Name: "breaking", Forum: forum},
		live:    make(map[string]Post),
		threads: make(map[string]string),
	}
}

// SetFetchError makes FetchChannel fail.
func (m *MockPoster) SetFetchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
}

// SetCreateError makes CreateThread and SendMessage fail.
func (m *MockPoster) SetCreateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
}

// SetDeleteError makes DeleteThread and DeleteMessage fail without deleting.
func (m *MockPoster) SetDeleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

// AddThread registers an existing thread for FindThread.
func (m *MockPoster) AddThread(name, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[name] = id
	m.live[id] = Post{ID: id, Thread: true, ChannelID: m.channel.ID, Title: name}
}

// CreateCount returns how many create calls were made, including failures.
func (m *MockPoster) CreateCount() int32 { return m.createCalls.Load() }

// DeleteCount returns how many delete calls were made, including failures.
func (m *MockPoster) DeleteCount() int32 { return m.deleteCalls.Load() }

// FetchCount returns how many FetchChannel calls were made.
func (m *MockPoster) FetchCount() int32 { return m.fetchCalls.Load() }

// Created returns every successfully created post in order.
func (m *MockPoster) Created() []Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Post(nil), m.created...)
}

// Deleted returns the IDs of deleted posts in order.
func (m *MockPoster) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Live returns the posts that have been created and not deleted.
func (m *MockPoster) Live() map[string]Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Post, len(m.live))
	for k, v := range m.live {
		out[k] = v
	}
	return out
}

// IsLive reports whether id was created and not deleted.
func (m *MockPoster) IsLive(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live[id]
	return ok
}

func (m *MockPoster) FetchChannel(ctx context.Context, channelID string) (*Channel, error) {
	m.fetchCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if channelID != m.channel.ID {
		return nil, &Error{Op: "fetch_channel", Code: ErrorCodeNotFound, Status: 404, Err: fmt.Errorf("unknown channel %s", channelID)}
	}
	ch := m.channel
	return &ch, nil
}

func (m *MockPoster) create(ctx context.Context, ch *Channel, thread bool, title string, msg Message) (string, error) {
	m.createCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var data []byte
	var name string
	if msg.Attachment != nil && msg.Attachment.Reader != nil {
		b, err := io.ReadAll(msg.Attachment.Reader)
		if err != nil {
			return "", fmt.Errorf("read attachment: %w", err)
		}
		data, name = b, msg.Attachment.Name
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	prefix := "msg"
	if thread {
		prefix = "thread"
	}
	id := fmt.Sprintf("%s-%d", prefix, m.nextID.Add(1))
	post := Post{
		ID:             id,
		Thread:         thread,
		ChannelID:      ch.ID,
		Title:          title,
		Content:        msg.Content,
		AttachmentName: name,
		AttachmentData: data,
	}
	m.live[id] = post
	m.created = append(m.created, post)
	return id, nil
}

func (m *MockPoster) CreateThread(ctx context.Context, ch *Channel, title string, msg Message) (string, error) {
	return m.create(ctx, ch, true, title, msg)
}

func (m *MockPoster) SendMessage(ctx context.Context, ch *Channel, msg Message) (string, error) {
	return m.create(ctx, ch, false, "", msg)
}

func (m *MockPoster) remove(id string) error {
	m.deleteCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.live[id]; !ok {
		return &Error{Op: "delete", Code: ErrorCodeNotFound, Status: 404, Err: fmt.Errorf("unknown post %s", id)}
	}
	delete(m.live, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *MockPoster) DeleteThread(_ context.Context, threadID string) error {
	return m.remove(threadID)
}

func (m *MockPoster) DeleteMessage(_ context.Context, _, messageID string) error {
	return m.remove(messageID)
}

func (m *MockPoster) FindThread(_ context.Context, _ *Channel, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.threads[name]; ok {
		return id, nil
	}
	return "", fmt.Errorf("thread %q: %w", name, ErrNotFound)
}
