// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Package feeds serves the public, read-mostly side of the bucket: the
// curated stories, spotlights and confessions documents, the confession
// submission queue and the voicemail library.
//
// Feed documents are the metadata.json at the root of each feed folder and
// are passed through as stored. A missing or malformed document reads as an
// empty list. Voicemails are the audio files directly under the voicemail
// folder; each is addressed by the hex SHA-1 of its file name.
package feeds

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // content address, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/metrics"
	"github.com/tomtom215/soapbox/internal/models"
	"github.com/tomtom215/soapbox/internal/objectstore"
	"github.com/tomtom215/soapbox/internal/validation"
)

// Feed names a curated feed document.
type Feed string

const (
	FeedStories     Feed = "stories"
	FeedSpotlights  Feed = "spotlights"
	FeedConfessions Feed = "confessions"
)

const (
	storiesPrefix = "stories/"
	feedDocument  = "metadata.json"

	// maxFeedBytes bounds a feed document.
	maxFeedBytes = 4 << 20

	// MaxConfessionChars bounds a confession's text.
	MaxConfessionChars = 4000
)

var (
	// ErrNotFound is returned for an unknown voicemail ID.
	ErrNotFound = errors.New("voicemail not found")

	// ErrUnknownFeed is returned for a feed name outside the three documents.
	ErrUnknownFeed = errors.New("unknown feed")

	emptyFeed = json.RawMessage("[]")
)

// audioTypes maps the accepted voicemail extensions to the Content-Type
// they are streamed with.
var audioTypes = map[string]string{
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
	".m4a": "audio/mp4",
	".aac": "audio/aac",
	".ogg": "audio/ogg",
}

// Config holds folder prefixes inside the bucket. Each is normalised to end
// in a slash.
type Config struct {
	SpotlightsPrefix  string
	ConfessionsPrefix string
	QueuePrefix       string
	VoicemailsPrefix  string

	// TempDir spools voicemail bodies the store cannot seek.
	TempDir string
}

// Service reads feeds and voicemails and queues confessions.
type Service struct {
	store objectstore.Store
	cfg   Config
	now   func() time.Time
}

// NewService creates a Service over store.
func NewService(store objectstore.Store, cfg Config) *Service {
	cfg.SpotlightsPrefix = folder(cfg.SpotlightsPrefix, "spotlights/")
	cfg.ConfessionsPrefix = folder(cfg.ConfessionsPrefix, "confessions/")
	cfg.QueuePrefix = folder(cfg.QueuePrefix, "confessions-queue/")
	cfg.VoicemailsPrefix = folder(cfg.VoicemailsPrefix, "voicemails/")
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Service{store: store, cfg: cfg, now: time.Now}
}

func folder(prefix, fallback string) string {
	prefix = strings.TrimLeft(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return fallback
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// Feed returns the stored document of feed. A missing or malformed
// document yields an empty list; other store failures are returned.
func (s *Service) Feed(ctx context.Context, feed Feed) (json.RawMessage, error) {
	var prefix string
	switch feed {
	case FeedStories:
		prefix = storiesPrefix
	case FeedSpotlights:
		prefix = s.cfg.SpotlightsPrefix
	case FeedConfessions:
		prefix = s.cfg.ConfessionsPrefix
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeed, feed)
	}
	key := prefix + feedDocument
	log := logging.Ctx(ctx).With().Str("feed", string(feed)).Str("key", key).Logger()

	rc, _, err := s.store.Get(ctx, key)
	if errors.Is(err, objectstore.ErrNotFound) {
		log.Debug().Msg("Feed document missing, serving empty list")
		return emptyFeed, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", feed, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxFeedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", feed, err)
	}
	if len(data) > maxFeedBytes || !json.Valid(data) {
		log.Warn().Int("bytes", len(data)).Msg("Feed document unusable, serving empty list")
		return emptyFeed, nil
	}
	return json.RawMessage(data), nil
}

type confessionRequest struct {
	Text string `validate:"required,max=4000"`
}

// SubmitConfession trims text and queues it as
// {queue}/{unixMillis}-{8 hex}.json. ip is recorded for moderation.
func (s *Service) SubmitConfession(ctx context.Context, text, ip string) (*models.ConfessionReceipt, error) {
	text = strings.TrimSpace(text)
	if verr := validation.ValidateStruct(confessionRequest{Text: text}); verr != nil {
		metrics.RecordConfession("rejected")
		return nil, verr
	}

	now := s.now().UTC()
	id := fmt.Sprintf("%d-%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	body, err := json.MarshalIndent(models.Confession{ID: id, Text: text, CreatedAt: now, IP: ip}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode confession: %w", err)
	}

	key := s.cfg.QueuePrefix + id + ".json"
	err = s.store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), objectstore.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"confessionid": id},
	})
	if err != nil {
		metrics.RecordConfession("error")
		logging.Ctx(ctx).Error().Err(err).Str("key", key).Msg("Queueing confession failed")
		return nil, fmt.Errorf("queue confession: %w", err)
	}
	metrics.RecordConfession("success")
	logging.Ctx(ctx).Info().Str("key", key).Int("chars", len([]rune(text))).Msg("Confession queued")
	return &models.ConfessionReceipt{OK: true, ID: id}, nil
}

// VoicemailID is the hex SHA-1 of a voicemail's file name.
func VoicemailID(name string) string {
	sum := sha1.Sum([]byte(name)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}

// Voicemails lists the audio files directly under the voicemail folder in
// key order.
func (s *Service) Voicemails(ctx context.Context) ([]models.Voicemail, error) {
	objs, err := s.voicemailObjects(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Voicemail, 0, len(objs))
	for i := range objs {
		name := path.Base(objs[i].Key)
		out = append(out, models.Voicemail{
			ID:        VoicemailID(name),
			Size:      objs[i].Size,
			CreatedAt: objs[i].LastModified.UTC(),
			Ext:       strings.TrimPrefix(path.Ext(name), "."),
		})
	}
	return out, nil
}

func (s *Service) voicemailObjects(ctx context.Context) ([]objectstore.Object, error) {
	objs, err := objectstore.ListAll(ctx, s.store, s.cfg.VoicemailsPrefix)
	if err != nil {
		return nil, fmt.Errorf("list voicemails: %w", err)
	}
	out := objs[:0]
	for _, o := range objs {
		rest := strings.TrimPrefix(o.Key, s.cfg.VoicemailsPrefix)
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}
		if _, ok := audioTypes[strings.ToLower(path.Ext(rest))]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

// Stream is an open voicemail body that can serve byte ranges.
type Stream struct {
	io.ReadSeeker
	Name        string
	Ext         string
	ContentType string
	Size        int64
	ModTime     time.Time

	close func() error
}

// Close releases the body and any spooled copy.
func (st *Stream) Close() error {
	if st.close == nil {
		return nil
	}
	return st.close()
}

// OpenVoicemail opens the voicemail with the given ID. The caller must
// close the stream.
func (s *Service) OpenVoicemail(ctx context.Context, id string) (*Stream, error) {
	objs, err := s.voicemailObjects(ctx)
	if err != nil {
		return nil, err
	}
	var key string
	for i := range objs {
		if VoicemailID(path.Base(objs[i].Key)) == id {
			key = objs[i].Key
			break
		}
	}
	if key == "" {
		metrics.RecordVoicemailStream("not_found")
		return nil, ErrNotFound
	}

	rc, obj, err := s.store.Get(ctx, key)
	if err != nil {
		metrics.RecordVoicemailStream("error")
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open voicemail: %w", err)
	}

	name := path.Base(key)
	ext := path.Ext(name)
	st := &Stream{
		Name:        name,
		Ext:         ext,
		ContentType: audioTypes[strings.ToLower(ext)],
		Size:        obj.Size,
		ModTime:     obj.LastModified,
	}
	if rs, ok := rc.(io.ReadSeeker); ok {
		st.ReadSeeker = rs
		st.close = rc.Close
	} else if err := s.spool(st, rc); err != nil {
		metrics.RecordVoicemailStream("error")
		return nil, err
	}
	metrics.RecordVoicemailStream("success")
	return st, nil
}

// spool copies a forward-only body to a temp file so ranges can be served.
func (s *Service) spool(st *Stream, rc io.ReadCloser) error {
	defer func() { _ = rc.Close() }()
	if err := os.MkdirAll(s.cfg.TempDir, 0o750); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	f, err := os.CreateTemp(s.cfg.TempDir, "voicemail-*"+st.Ext)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	release := func() error {
		cerr := f.Close()
		if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return cerr
	}
	n, err := io.Copy(f, rc)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = release()
		return fmt.Errorf("spool %s: %w", st.Name, err)
	}
	st.ReadSeeker = f
	st.Size = n
	st.close = release
	return nil
}
