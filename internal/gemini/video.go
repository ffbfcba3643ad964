package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/presentai/presentai/pkg/poll"
)

const defaultVideoEndpoint = "https://generativelanguage.googleapis.com"

// VideoClient drives the provider's long-running video generation API. The
// flow is start operation, probe until done, fetch the produced bytes.
type VideoClient struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

type VideoOption func(c *VideoClient)

func WithVideoEndpoint(endpoint string) VideoOption {
	return func(c *VideoClient) {
		if endpoint != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

func WithVideoHTTPClient(client *http.Client) VideoOption {
	return func(c *VideoClient) {
		c.client = client
	}
}

func NewVideoClient(apiKey string, model string, opts ...VideoOption) *VideoClient {
	c := &VideoClient{
		endpoint: defaultVideoEndpoint,
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type inlineImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MIMEType           string `json:"mimeType"`
}

type videoInstance struct {
	Prompt    string       `json:"prompt"`
	Image     *inlineImage `json:"image,omitempty"`
	LastFrame *inlineImage `json:"lastFrame,omitempty"`
}

type startVideoRequest struct {
	Instances []videoInstance `json:"instances"`
}

type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type generatedSample struct {
	Video struct {
		URI string `json:"uri"`
	} `json:"video"`
}

type videoOperation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *operationError `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []generatedSample `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
}

func (o *videoOperation) resultRef() string {
	if o.Response == nil {
		return ""
	}
	samples := o.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 {
		return ""
	}
	return samples[0].Video.URI
}

// StartVideo submits a generation request framed by the two stills and
// returns the operation name to probe.
func (c *VideoClient) StartVideo(ctx context.Context, firstFrame, lastFrame []byte, instruction string) (string, error) {
	instance := videoInstance{
		Prompt: instruction,
		Image: &inlineImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(firstFrame),
			MIMEType:           "image/png",
		},
	}
	if len(lastFrame) > 0 {
		instance.LastFrame = &inlineImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(lastFrame),
			MIMEType:           "image/png",
		}
	}

	body, err := json.Marshal(startVideoRequest{Instances: []videoInstance{instance}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:predictLongRunning", c.endpoint, c.model)
	payload, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var op videoOperation
	if err := json.Unmarshal(payload, &op); err != nil {
		return "", fmt.Errorf("failed to decode operation: %w", err)
	}
	if op.Name == "" {
		return "", fmt.Errorf("operation name missing in response")
	}
	return op.Name, nil
}

// ProbeOperation reports the state of a generation operation. Once the
// operation is done it also returns the reference the video can be fetched
// from.
func (c *VideoClient) ProbeOperation(ctx context.Context, name string) (poll.State, string, error) {
	url := fmt.Sprintf("%s/v1beta/%s", c.endpoint, name)
	payload, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return poll.StatePending, "", err
	}

	var op videoOperation
	if err := json.Unmarshal(payload, &op); err != nil {
		return poll.StatePending, "", fmt.Errorf("failed to decode operation: %w", err)
	}

	if !op.Done {
		return poll.StatePending, "", nil
	}
	if op.Error != nil {
		return poll.StateFailed, "", classifyErr(fmt.Errorf("video generation failed: %s (%s)", op.Error.Message, op.Error.Status))
	}
	ref := op.resultRef()
	if ref == "" {
		return poll.StateFailed, "", fmt.Errorf("operation finished without a video result")
	}
	return poll.StateReady, ref, nil
}

// FetchVideo downloads the generated video bytes.
func (c *VideoClient) FetchVideo(ctx context.Context, resultRef string) ([]byte, error) {
	ref := resultRef
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		ref = fmt.Sprintf("%s/%s", c.endpoint, strings.TrimLeft(resultRef, "/"))
	}
	return c.do(ctx, http.MethodGet, ref, nil)
}

func (c *VideoClient) do(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyErr(fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}
	return payload, nil
}
