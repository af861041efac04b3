// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Package platform is the Platform Poster: it creates and deletes the
// threads or messages that represent stories on Discord.
package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrNotFound is returned when a channel, thread or message does not exist.
var ErrNotFound = errors.New("platform resource not found")

// Error codes for classified platform failures.
const (
	ErrorCodeNotFound         = "not_found"
	ErrorCodeAuthFailed       = "auth_failed"
	ErrorCodeRateLimited      = "rate_limited"
	ErrorCodeContentTooLarge  = "content_too_large"
	ErrorCodeServerError      = "server_error"
	ErrorCodeTimeout          = "timeout"
	ErrorCodeConnectionFailed = "connection_failed"
	ErrorCodeUnknown          = "unknown"
)

// Error is a classified platform failure.
type Error struct {
	Op     string
	Code   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %v", e.Op, e.Code, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrNotFound) true for not_found failures.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Code == ErrorCodeNotFound
}

// Transient reports whether a later attempt may succeed.
func (e *Error) Transient() bool {
	switch e.Code {
	case ErrorCodeConnectionFailed, ErrorCodeTimeout, ErrorCodeRateLimited, ErrorCodeServerError:
		return true
	default:
		return false
	}
}

// Channel is the subset of channel state the rotation engine needs.
type Channel struct {
	ID      string
	GuildID string
	Name    string

	// Forum is true when the channel only accepts threaded posts.
	Forum bool
}

// Attachment is a file sent with a post. Reader is consumed once.
type Attachment struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Message is the body of a new thread or message.
type Message struct {
	Content    string
	Attachment *Attachment
}

// Poster is the platform port consumed by the rotation engine and the
// witness uploader.
type Poster interface {
	FetchChannel(ctx context.Context, channelID string) (*Channel, error)

	// CreateThread starts a thread named title in a forum channel and returns its ID.
	CreateThread(ctx context.Context, ch *Channel, title string, msg Message) (string, error)

	// SendMessage posts msg in ch and returns the message ID.
	SendMessage(ctx context.Context, ch *Channel, msg Message) (string, error)

	DeleteThread(ctx context.Context, threadID string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	// FindThread returns the ID of the thread under ch whose name is exactly
	// name, searching active then archived threads. ErrNotFound when none match.
	FindThread(ctx context.Context, ch *Channel, name string) (string, error)
}

// MaxThreadTitle is Discord's hard limit on thread names.
const MaxThreadTitle = 100

// TruncateTitle shortens s to at most limit characters, counting runes so
// multi-byte titles are never split mid-character.
func TruncateTitle(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// ClassifyStatus maps an HTTP status to an error code.
func ClassifyStatus(code int) string {
	switch {
	case code == 401 || code == 403:
		return ErrorCodeAuthFailed
	case code == 404:
		return ErrorCodeNotFound
	case code == 429:
		return ErrorCodeRateLimited
	case code == 413:
		return ErrorCodeContentTooLarge
	case code >= 500:
		return ErrorCodeServerError
	default:
		return ErrorCodeUnknown
	}
}
