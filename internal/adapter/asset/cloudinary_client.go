package asset

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const defaultCloudinaryBaseURL = "https://api.cloudinary.com"

// CloudinaryClient uploads and destroys product images through Cloudinary's
// signed upload API.
type CloudinaryClient struct {
	cloudName string
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
	now       func() time.Time
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	// BaseURL overrides the endpoint, used by tests.
	BaseURL string
	Timeout time.Duration
}

func NewCloudinaryClient(cfg CloudinaryConfig) *CloudinaryClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultCloudinaryBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CloudinaryClient{
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
		now:       time.Now,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Upload sends an image (data URI or remote URL) to Cloudinary and returns
// the secure URL to store on the product record.
func (c *CloudinaryClient) Upload(ctx context.Context, image, folder string) (string, error) {
	ts := strconv.FormatInt(c.now().Unix(), 10)

	form := url.Values{}
	form.Set("file", image)
	form.Set("folder", folder)
	form.Set("timestamp", ts)
	form.Set("api_key", c.apiKey)
	form.Set("signature", c.sign(map[string]string{"folder": folder, "timestamp": ts}))

	var resp uploadResponse
	if err := c.post(ctx, "/image/upload", form, &resp); err != nil {
		return "", err
	}
	return resp.SecureURL, nil
}

// Destroy removes the asset behind a secure URL. The public id is derived
// from the URL's last path segment, matching how uploads are foldered.
func (c *CloudinaryClient) Destroy(ctx context.Context, assetRef string) error {
	publicID := publicIDFromURL(assetRef)
	if publicID == "" {
		return fmt.Errorf("cannot derive public id from asset ref %q", assetRef)
	}

	ts := strconv.FormatInt(c.now().Unix(), 10)

	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("timestamp", ts)
	form.Set("api_key", c.apiKey)
	form.Set("signature", c.sign(map[string]string{"public_id": publicID, "timestamp": ts}))

	return c.post(ctx, "/image/destroy", form, nil)
}

func publicIDFromURL(assetRef string) string {
	seg := assetRef
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	if i := strings.LastIndex(seg, "."); i >= 0 {
		seg = seg[:i]
	}
	if seg == "" {
		return ""
	}
	return "products/" + seg
}

// sign builds the SHA-1 request signature over the sorted parameters plus
// the API secret, per Cloudinary's authentication scheme.
func (c *CloudinaryClient) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}

func (c *CloudinaryClient) post(ctx context.Context, path string, form url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/v1_1/%s%s", c.baseURL, c.cloudName, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary request: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("cloudinary call failed status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode cloudinary response: %w", err)
		}
	}
	return nil
}
