package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nao1215/captioner/internal/model"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxBytes is the largest image the resolver reads.
	DefaultMaxBytes = 32 << 20

	// DefaultTimeout bounds a remote fetch.
	DefaultTimeout = 15 * time.Second
)

// Resolver turns URIs into ImageBitmaps.
type Resolver struct {
	allowRemote bool
	maxBytes    int64
	timeout     time.Duration
	client      *http.Client
	logger      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAllowRemote enables http(s) URIs.
func WithAllowRemote(allow bool) Option {
	return func(r *Resolver) {
		r.allowRemote = allow
	}
}

// WithMaxBytes sets the size limit. Non-positive values keep the default.
func WithMaxBytes(n int64) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

// WithHTTPClient sets the client used for remote URIs.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		r.client = c
	}
}

// WithTimeout sets the timeout of a remote fetch.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver that reads local images only unless
// WithAllowRemote is given.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		maxBytes: DefaultMaxBytes,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = http.DefaultClient
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Resolve reads the image behind uri. The mime type is sniffed from the
// bytes; width and height come from the image header when it can be read.
func (r *Resolver) Resolve(ctx context.Context, uri string) (model.ImageBitmap, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return model.ImageBitmap{}, ErrEmptyURI
	}

	data, declared, err := r.read(ctx, uri)
	if err != nil {
		return model.ImageBitmap{}, err
	}

	bitmap := model.ImageBitmap{
		Data:     data,
		MimeType: Sniff(data, declared),
		Source:   uri,
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		bitmap.Width, bitmap.Height = cfg.Width, cfg.Height
	}
	return bitmap, nil
}

// Sniff returns the mime type detected from data, or declared when the
// bytes are not recognized.
func Sniff(data []byte, declared string) string {
	m := mimetype.Detect(data)
	if m.Is("application/octet-stream") && declared != "" {
		return declared
	}
	return m.String()
}

func (r *Resolver) read(ctx context.Context, uri string) ([]byte, string, error) {
	if !strings.Contains(uri, ":") || filepath.IsAbs(uri) || isWindowsPath(uri) {
		data, err := r.readFile(uri)
		return data, "", err
	}

	if strings.HasPrefix(strings.ToLower(uri), "data:") {
		return decodeDataURI(uri, r.maxBytes)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", fmt.Errorf("parse %q: %w", uri, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		path := u.Path
		if u.Host != "" && u.Host != "localhost" {
			path = "//" + u.Host + u.Path
		}
		data, err := r.readFile(path)
		return data, "", err
	case "http", "https":
		if !r.allowRemote {
			return nil, "", fmt.Errorf("%s: %w", uri, ErrRemoteDisabled)
		}
		return r.fetch(ctx, uri)
	default:
		return nil, "", fmt.Errorf("%q: %w", u.Scheme, ErrUnsupportedScheme)
	}
}

func (r *Resolver) readFile(path string) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return readLimited(f, r.maxBytes)
}

// fetch downloads a remote image.
func (r *Resolver) fetch(ctx context.Context, uri string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image: unexpected status %s", resp.Status)
	}

	ct := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	data, err := readLimited(resp.Body, r.maxBytes)
	if err != nil {
		return nil, "", err
	}
	r.logger.Debug("fetched remote image", "bytes", len(data), "content_type", ct)
	return data, ct, nil
}

func readLimited(rd io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(rd, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

// decodeDataURI decodes "data:[<mime>][;base64],<payload>".
func decodeDataURI(uri string, limit int64) ([]byte, string, error) {
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}

	params := strings.Split(header, ";")
	declared := strings.TrimSpace(params[0])
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrInvalidDataURI, err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrInvalidDataURI, err)
		}
		data = []byte(unescaped)
	}
	if int64(len(data)) > limit {
		return nil, "", ErrTooLarge
	}
	return data, declared, nil
}

func isWindowsPath(p string) bool {
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}
