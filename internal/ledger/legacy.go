// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/soapbox/internal/models"
)

// legacyEntry is one value of the stories-sync.json document. Older
// deployments wrote "ref": {"type": "message", "id": null} when nothing had
// been posted yet.
type legacyEntry struct {
	CycleKey string `json:"cycleKey"`
	Ref      *struct {
		Type string  `json:"type"`
		ID   *string `json:"id"`
	} `json:"ref"`
}

// ImportLegacyFile loads a stories-sync.json document into l and renames the
// file to path+".imported". Nothing happens when the file is missing or the
// ledger already has entries; the file is left in place in the latter case.
// It returns the number of imported entries.
func ImportLegacyFile(ctx context.Context, l Ledger, path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read legacy ledger: %w", err)
	}

	existing, err := l.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	var doc map[string]legacyEntry
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("decode legacy ledger: %w", err)
	}

	now := time.Now().UTC()
	n := 0
	for storyID, le := range doc {
		if storyID == "" || le.CycleKey == "" {
			continue
		}
		entry := models.LedgerEntry{CycleKey: le.CycleKey, UpdatedAt: now}
		if le.Ref != nil && le.Ref.ID != nil && *le.Ref.ID != "" {
			entry.Ref = &models.PlatformRef{Type: models.RefType(le.Ref.Type), ID: *le.Ref.ID}
		}
		if err := l.Set(ctx, storyID, entry); err != nil {
			return n, fmt.Errorf("import %s: %w", storyID, err)
		}
		n++
	}

	if err := os.Rename(path, path+".imported"); err != nil {
		return n, fmt.Errorf("rename legacy ledger: %w", err)
	}
	return n, nil
}
