// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package cli

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// videoTypes covers extensions the platform's mime table may not know.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".3gp":  "video/3gpp",
	".3g2":  "video/3gpp2",
}

func videoContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// NewWitnessCommand creates the witness upload command.
func NewWitnessCommand(opts *RootOptions) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "witness <storyId> <file>",
		Short: "Upload a witness video for a story",
		Long: `Upload a witness video into stories/{storyId}/witnesses/.

The server may also announce the upload in the story's thread.

Examples:
  soapboxctl witness Story2 ./clip.mp4 --title "Harbour fire"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := storyIDArg(args)
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "open video", err)
			}
			defer func() { _ = f.Close() }()

			body, contentType := witnessBody(f, filepath.Base(args[1]), id, title)
			return call(cmd, opts, http.MethodPost, "/api/witness", body, contentType)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "story title, used for the object name and thread lookup")
	return cmd
}

// witnessBody streams a multipart form through a pipe so large videos are
// never buffered in memory.
func witnessBody(src io.Reader, filename, storyID, title string) (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeWitnessForm(mw, src, filename, storyID, title)
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeWitnessForm(mw *multipart.Writer, src io.Reader, filename, storyID, title string) error {
	if err := mw.WriteField("storyId", storyID); err != nil {
		return err
	}
	if title != "" {
		if err := mw.WriteField("storyTitle", title); err != nil {
			return err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, filename))
	h.Set("Content-Type", videoContentType(filename))

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	return err
}
