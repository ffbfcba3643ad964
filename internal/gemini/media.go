package gemini

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/presentai/presentai/pkg/poll"
)

// Handle identifies an uploaded media resource on the provider side.
type Handle struct {
	Name     string
	URI      string
	MIMEType string
}

// UploadFile pushes a local media file to the provider and returns its
// handle. The resource is usually still processing on return; callers probe
// it until it becomes active.
func (c *Client) UploadFile(ctx context.Context, path string) (Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	file, err := c.client.UploadFile(ctx, "", f, &genai.UploadFileOptions{
		DisplayName: filepath.Base(path),
		MIMEType:    mimeForPath(path),
	})
	if err != nil {
		return Handle{}, classifyErr(err)
	}
	return Handle{Name: file.Name, URI: file.URI, MIMEType: file.MIMEType}, nil
}

// ProbeFile reports the processing state of an uploaded resource.
func (c *Client) ProbeFile(ctx context.Context, name string) (poll.State, error) {
	file, err := c.client.GetFile(ctx, name)
	if err != nil {
		return poll.StatePending, classifyErr(err)
	}
	switch file.State {
	case genai.FileStateActive:
		return poll.StateReady, nil
	case genai.FileStateFailed:
		return poll.StateFailed, nil
	default:
		return poll.StatePending, nil
	}
}

func (c *Client) DeleteFile(ctx context.Context, name string) error {
	return c.client.DeleteFile(ctx, name)
}

func mimeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
