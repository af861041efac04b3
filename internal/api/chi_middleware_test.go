// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package api

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/soapbox/internal/models"
)

// slowManager takes longer than the server's write timeout to finish a pass.
type slowManager struct {
	RotationManager
	delay time.Duration
}

func (m slowManager) TriggerSync(ctx context.Context) (*models.SyncReport, error) {
	select {
	case <-time.After(m.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &models.SyncReport{Trigger: "manual", Stories: []string{"Story1"}}, nil
}

// startServer serves h with short server-wide timeouts.
func startServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewUnstartedServer(h)
	srv.Config.ReadTimeout = 100 * time.Millisecond
	srv.Config.WriteTimeout = 100 * time.Millisecond
	srv.Start()
	t.Cleanup(srv.Close)
	return srv
}

func TestLongRequest_SyncOutlivesWriteTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		long    time.Duration
		wantErr bool
	}{
		{"extended", 5 * time.Second, false},
		{"server timeout applies", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mwCfg := DefaultChiMiddlewareConfig()
			mwCfg.RateLimitDisabled = true
			mwCfg.LongRequestTimeout = tt.long
			h := NewRouter(NewHandler(HandlerDeps{Manager: slowManager{delay: 300 * time.Millisecond}}),
				NewChiMiddleware(mwCfg), testKey).SetupChi()
			srv := startServer(t, h)

			req, err := http.NewRequest(http.MethodPost, srv.URL+"/admin/sync-stories", nil)
			if err != nil {
				t.Fatal(err)
			}
			req.Header.Set(HeaderAPIKey, testKey)
			resp, err := srv.Client().Do(req)
			if tt.wantErr {
				if err == nil {
					_, err = io.ReadAll(resp.Body)
					_ = resp.Body.Close()
				}
				if err == nil {
					t.Fatal("expected the connection to be cut at the server write timeout")
				}
				return
			}
			if err != nil {
				t.Fatalf("POST /admin/sync-stories: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			var env envelope
			if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if env.Status != "success" {
				t.Errorf("status = %q, want success", env.Status)
			}
		})
	}
}

func TestLongRequest_SlowUploadOutlivesReadTimeout(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{apiKey: testKey})
	srv := startServer(t, env.handler)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		_ = mw.WriteField("storyId", "Story1")
		// Stall past the server read timeout before sending the file.
		time.Sleep(300 * time.Millisecond)
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="video"; filename="clip.mp4"`)
		h.Set("Content-Type", "video/mp4")
		part, err := mw.CreatePart(h)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_, _ = part.Write(make([]byte, 1024))
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/witness", pr)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(HeaderAPIKey, testKey)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("POST /api/witness: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d body = %s, want 200", resp.StatusCode, body)
	}
}
