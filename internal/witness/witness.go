// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Package witness stores viewer-submitted videos under a story's witnesses/
// folder and optionally announces them in the story's Discord thread.
//
// Witness objects never affect a story's cycle key: they live in a
// sub-folder and are not images, metadata or voicemail audio.
package witness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/metrics"
	"github.com/tomtom215/soapbox/internal/models"
	"github.com/tomtom215/soapbox/internal/objectstore"
	"github.com/tomtom215/soapbox/internal/platform"
	"github.com/tomtom215/soapbox/internal/validation"
)

var (
	// ErrUnsupportedType is returned for MIME types outside the allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrTooLarge is returned when the video exceeds the configured limit.
	ErrTooLarge = errors.New("video exceeds size limit")

	// ErrMissingFile is returned when no video body was supplied.
	ErrMissingFile = errors.New("video file required (field name: video)")
)

// allowedTypes are the accepted upload MIME types. Some Android clients send
// application/octet-stream.
var allowedTypes = map[string]bool{
	"video/mp4":                true,
	"video/quicktime":          true,
	"video/x-matroska":         true,
	"video/webm":               true,
	"video/3gpp":               true,
	"video/3gpp2":              true,
	"application/octet-stream": true,
}

// maxPostAttachment is the largest file announced with the video attached.
const maxPostAttachment = 25 << 20

// AllowedType reports whether mime is accepted.
func AllowedType(mime string) bool {
	return allowedTypes[strings.ToLower(strings.TrimSpace(mime))]
}

// Upload is one submitted video.
type Upload struct {
	StoryID     string `validate:"required,storyid"`
	StoryTitle  string `validate:"max=200"`
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// Config holds the service settings.
type Config struct {
	Bucket        string
	ChannelID     string
	MaxBytes      int64
	PostToDiscord bool
}

// Service accepts witness uploads.
type Service struct {
	store  objectstore.Store
	poster platform.Poster
	cfg    Config
	now    func() time.Time
}

// NewService creates a Service. poster may be nil when posting is disabled.
func NewService(store objectstore.Store, poster platform.Poster, cfg Config) *Service {
	return &Service{store: store, poster: poster, cfg: cfg, now: time.Now}
}

// MaxBytes returns the upload size limit.
func (s *Service) MaxBytes() int64 {
	return s.cfg.MaxBytes
}

// Upload validates u, stores it and, when configured, posts it to Discord.
// Posting failures are logged; they never fail the upload.
func (s *Service) Upload(ctx context.Context, u Upload) (*models.WitnessUploadResult, error) {
	if verr := validation.ValidateStruct(u); verr != nil {
		return nil, verr
	}
	if u.Body == nil {
		return nil, ErrMissingFile
	}
	if !AllowedType(u.ContentType) {
		metrics.RecordWitnessUpload("rejected", 0)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, u.ContentType)
	}
	if s.cfg.MaxBytes > 0 && u.Size > s.cfg.MaxBytes {
		metrics.RecordWitnessUpload("rejected", 0)
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, u.Size, s.cfg.MaxBytes)
	}

	title := u.StoryTitle
	if title == "" {
		title = u.StoryID
	}
	key := ObjectKey(u.StoryID, title, u.Filename, u.ContentType, s.now())
	log := logging.Ctx(ctx).With().Str("story_id", u.StoryID).Str("key", key).Logger()

	err := s.store.Put(ctx, key, u.Body, u.Size, objectstore.PutOptions{
		ContentType: u.ContentType,
		Metadata: map[string]string{
			"storyid":    u.StoryID,
			"storytitle": u.StoryTitle,
			"uploadid":   uuid.New().String(),
		},
	})
	if err != nil {
		metrics.RecordWitnessUpload("error", 0)
		log.Error().Err(err).Msg("Witness upload failed")
		return nil, fmt.Errorf("store witness video: %w", err)
	}
	metrics.RecordWitnessUpload("success", u.Size)
	log.Info().Int64("size", u.Size).Str("mime", u.ContentType).Msg("Witness video stored")

	res := &models.WitnessUploadResult{
		OK:     true,
		Bucket: s.cfg.Bucket,
		Key:    key,
		Size:   u.Size,
		MIME:   u.ContentType,
	}

	if s.cfg.PostToDiscord && s.poster != nil {
		if err := s.announce(ctx, title, filepath.Base(key), u); err != nil {
			log.Warn().Err(err).Msg("Posting witness video to Discord failed")
		} else {
			res.Posted = true
		}
	}
	return res, nil
}

// announce posts the video to the thread named title, or to the channel
// when no such thread exists.
func (s *Service) announce(ctx context.Context, title, filename string, u Upload) error {
	ch, err := s.poster.FetchChannel(ctx, s.cfg.ChannelID)
	if err != nil {
		return fmt.Errorf("fetch channel: %w", err)
	}

	target := ch
	if threadID, err := s.poster.FindThread(ctx, ch, title); err == nil {
		target = &platform.Channel{ID: threadID, GuildID: ch.GuildID, Name: title}
	} else if !errors.Is(err, platform.ErrNotFound) {
		logging.Ctx(ctx).Debug().Err(err).Msg("Thread lookup failed, posting to channel")
	}

	msg := platform.Message{Content: fmt.Sprintf("🎥 New witness video for **%s**", title)}
	if u.Size <= maxPostAttachment {
		if _, err := u.Body.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind video: %w", err)
		}
		msg.Attachment = &platform.Attachment{Name: filename, ContentType: u.ContentType, Reader: u.Body}
	}

	_, err = s.poster.SendMessage(ctx, target, msg)
	return err
}

var (
	unsafeChars = regexp.MustCompile(`[^\w\s.-]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// SafeName folds s to a filesystem-safe fragment of at most 80 characters,
// or "untitled" when nothing survives.
func SafeName(s string) string {
	s = norm.NFKD.String(s)
	s = unsafeChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "_")
	if len(s) > 80 {
		s = s[:80]
	}
	if s == "" {
		return "untitled"
	}
	return s
}

// ObjectKey returns stories/{storyId}/witnesses/{ts}_{safeTitle}{ext}.
func ObjectKey(storyID, title, filename, mime string, at time.Time) string {
	ts := at.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return "stories/" + storyID + "/witnesses/" + ts + "_" + SafeName(title) + extension(filename, mime)
}

func extension(filename, mime string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	if strings.EqualFold(mime, "video/quicktime") {
		return ".mov"
	}
	return ".mp4"
}
