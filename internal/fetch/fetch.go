// Package fetch loads documents and side files over HTTP or from disk.
//
// A Fetcher loads each resolved location at most once: concurrent callers
// share one request and later callers get the cached bytes.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/alnah/go-mdpress/internal/fileutil"
)

// DefaultMaxSize caps the bytes read from a single location.
const DefaultMaxSize = 10 << 20

// DefaultTimeout bounds each HTTP request.
const DefaultTimeout = 30 * time.Second

// Sentinel errors.
var (
	ErrEmptyLocation = errors.New("empty location")
	ErrStatus        = errors.New("unexpected HTTP status")
	ErrTooLarge      = errors.New("resource too large")
)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithActivity reports every load to a.
func WithActivity(a *Activity) Option {
	return func(f *Fetcher) { f.activity = a }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// WithMaxSize caps the bytes read per location.
func WithMaxSize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxSize = n
		}
	}
}

// Fetcher loads http(s) URLs, file:// URLs and local paths.
type Fetcher struct {
	client   *http.Client
	activity *Activity
	log      *zap.Logger
	maxSize  int64

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string][]byte
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{Timeout: DefaultTimeout},
		log:     zap.NewNop(),
		maxSize: DefaultMaxSize,
		cache:   map[string][]byte{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load resolves ref against base and fetches it. It satisfies the loader
// interface of the bibliography resolver.
func (f *Fetcher) Load(ctx context.Context, ref, base string) ([]byte, error) {
	loc, err := Resolve(ref, base)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, loc)
}

// Fetch returns the content at location. Successful results are cached;
// failures are not, so a later call retries.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, ErrEmptyLocation
	}

	f.mu.RLock()
	data, ok := f.cache[location]
	f.mu.RUnlock()
	if ok {
		return data, nil
	}

	v, err, shared := f.group.Do(location, func() (any, error) {
		f.mu.RLock()
		cached, ok := f.cache[location]
		f.mu.RUnlock()
		if ok {
			return cached, nil
		}

		data, err := f.load(ctx, location)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.cache[location] = data
		f.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		f.log.Debug("shared in-flight load", zap.String("url", location))
	}
	return v.([]byte), nil
}

func (f *Fetcher) load(ctx context.Context, location string) ([]byte, error) {
	if f.activity != nil {
		done := f.activity.Start()
		defer done()
	}

	start := time.Now()
	var (
		data []byte
		err  error
	)
	if fileutil.IsURL(location) {
		data, err = f.loadHTTP(ctx, location)
	} else {
		data, err = f.loadFile(location)
	}
	if err != nil {
		f.log.Debug("load failed", zap.String("url", location), zap.Error(err))
		return nil, err
	}
	f.log.Debug("loaded",
		zap.String("url", location),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)),
	)
	return data, nil
}

func (f *Fetcher) loadHTTP(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: %w: %d", location, ErrStatus, resp.StatusCode)
	}
	return readLimited(resp.Body, f.maxSize)
}

func (f *Fetcher) loadFile(location string) ([]byte, error) {
	path := location
	if fileutil.IsFileURL(location) {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", location, err)
		}
		path = filepath.FromSlash(u.Path)
	}

	file, err := os.Open(path) // #nosec G304 -- user-provided document path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return readLimited(file, f.maxSize)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// Resolve returns ref as seen from base. base may be a URL, a file path or
// empty. Absolute refs are returned unchanged.
func Resolve(ref, base string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrEmptyLocation
	}
	if fileutil.IsURL(ref) || fileutil.IsFileURL(ref) {
		return ref, nil
	}

	if fileutil.IsURL(base) || fileutil.IsFileURL(base) {
		b, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("parse base %q: %w", base, err)
		}
		r, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("parse ref %q: %w", ref, err)
		}
		return b.ResolveReference(r).String(), nil
	}

	if base == "" || filepath.IsAbs(ref) {
		return ref, nil
	}
	return filepath.Join(filepath.Dir(base), ref), nil
}
