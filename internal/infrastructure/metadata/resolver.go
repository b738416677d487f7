package metadata

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/infrastructure/configloader"
	"xrpl_control_room/internal/pkg/metrics"
	"xrpl_control_room/internal/pkg/utils"

	"github.com/asaskevich/govalidator"
	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"
	"github.com/spf13/cast"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrEmptyURI       = errors.New("nft has no uri")
	ErrUnsupportedURI = errors.New("unsupported nft uri")
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".avif": true, ".bmp": true,
}

// Config configures a Resolver.
type Config struct {
	IPFSGateway string
	Timeout     time.Duration
	CacheTTL    time.Duration
	MaxBytes    int
}

// ConfigFromAssets maps the assets config section.
func ConfigFromAssets(cfg configloader.AssetsConfig) Config {
	return Config{
		IPFSGateway: cfg.IPFSGateway,
		Timeout:     time.Duration(cfg.MetadataTimeoutMs) * time.Millisecond,
		CacheTTL:    time.Duration(cfg.MetadataCacheTTLMinutes) * time.Minute,
		MaxBytes:    cfg.MaxMetadataBytes,
	}
}

// Resolver implements port.MetadataResolver. Concurrent lookups of the same
// URI share one fetch and successful results are cached.
type Resolver struct {
	client  *fasthttp.Client
	gateway string
	timeout time.Duration
	cache   *cache.Cache
	group   singleflight.Group
	logger  port.Logger
}

// NewResolver creates a metadata resolver.
func NewResolver(cfg Config, logger port.Logger) *Resolver {
	if cfg.IPFSGateway == "" {
		cfg.IPFSGateway = "https://ipfs.io/ipfs/"
	}
	if !strings.HasSuffix(cfg.IPFSGateway, "/") {
		cfg.IPFSGateway += "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 2 << 20
	}
	return &Resolver{
		client: &fasthttp.Client{
			Name:                "xrpl-control-room",
			MaxResponseBodySize: cfg.MaxBytes,
		},
		gateway: cfg.IPFSGateway,
		timeout: cfg.Timeout,
		cache:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:  logger,
	}
}

// Resolve returns the metadata document an NFT URI points to. Image URIs
// resolve to metadata carrying only the image.
func (r *Resolver) Resolve(ctx context.Context, uri string) (entity.NFTMetadata, error) {
	uri = normalizeURI(uri)
	if uri == "" {
		return entity.NFTMetadata{}, ErrEmptyURI
	}
	if cached, ok := r.cache.Get(uri); ok {
		metrics.MetadataResolveTotal.WithLabelValues("cache_hit").Inc()
		return cached.(entity.NFTMetadata), nil
	}

	v, err, _ := r.group.Do(uri, func() (any, error) {
		return r.resolve(ctx, uri)
	})
	if err != nil {
		metrics.MetadataResolveTotal.WithLabelValues("failed").Inc()
		r.logger.Debug("NFT metadata resolution failed", "uri", uri, "error", err)
		return entity.NFTMetadata{}, err
	}
	md := v.(entity.NFTMetadata)
	r.cache.SetDefault(uri, md)
	metrics.MetadataResolveTotal.WithLabelValues("resolved").Inc()
	return md, nil
}

func (r *Resolver) resolve(ctx context.Context, uri string) (entity.NFTMetadata, error) {
	if strings.HasPrefix(uri, "data:") {
		return r.decodeDataURI(uri)
	}

	target := r.GatewayURL(uri)
	if !isHTTP(target) || !govalidator.IsURL(target) {
		return entity.NFTMetadata{}, fmt.Errorf("%w: %q", ErrUnsupportedURI, uri)
	}
	if isImagePath(target) {
		return entity.NFTMetadata{Image: target}, nil
	}
	return r.fetch(ctx, target)
}

// GatewayURL rewrites IPFS references to the configured HTTP gateway.
// Other URIs are returned unchanged.
func (r *Resolver) GatewayURL(uri string) string {
	switch {
	case strings.HasPrefix(uri, "ipfs://ipfs/"):
		return r.gateway + strings.TrimPrefix(uri, "ipfs://ipfs/")
	case strings.HasPrefix(uri, "ipfs://"):
		return r.gateway + strings.TrimPrefix(uri, "ipfs://")
	case strings.HasPrefix(uri, "/ipfs/"):
		return r.gateway + strings.TrimPrefix(uri, "/ipfs/")
	case isBareCID(uri):
		return r.gateway + uri
	}
	return uri
}

func (r *Resolver) fetch(ctx context.Context, target string) (entity.NFTMetadata, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json, image/*;q=0.8")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline := time.Now().Add(r.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := ctx.Err(); err != nil {
		return entity.NFTMetadata{}, err
	}
	if err := r.client.DoDeadline(req, resp, deadline); err != nil {
		return entity.NFTMetadata{}, fmt.Errorf("failed to fetch metadata from %s: %w", target, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return entity.NFTMetadata{}, fmt.Errorf("metadata request to %s failed with status %d", target, resp.StatusCode())
	}

	contentType := strings.ToLower(string(resp.Header.ContentType()))
	if strings.HasPrefix(contentType, "image/") {
		return entity.NFTMetadata{Image: target}, nil
	}
	return r.decodeDocument(resp.Body())
}

func (r *Resolver) decodeDataURI(uri string) (entity.NFTMetadata, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return entity.NFTMetadata{}, fmt.Errorf("%w: malformed data uri", ErrUnsupportedURI)
	}
	mediaType := strings.ToLower(strings.Split(header, ";")[0])
	if strings.HasPrefix(mediaType, "image/") {
		return entity.NFTMetadata{Image: uri}, nil
	}

	var body []byte
	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(payload)
		}
		if err != nil {
			return entity.NFTMetadata{}, fmt.Errorf("invalid base64 data uri: %w", err)
		}
		body = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return entity.NFTMetadata{}, fmt.Errorf("invalid data uri payload: %w", err)
		}
		body = []byte(unescaped)
	}
	return r.decodeDocument(body)
}

type rawDocument struct {
	Image       string `json:"image"`
	ImageURL    string `json:"image_url"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Attributes  any    `json:"attributes"`
}

func (r *Resolver) decodeDocument(body []byte) (entity.NFTMetadata, error) {
	var doc rawDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return entity.NFTMetadata{}, fmt.Errorf("failed to decode metadata document: %w", err)
	}
	md := entity.NFTMetadata{
		Name:        firstNonEmpty(doc.Name, doc.Title),
		Description: doc.Description,
		Attributes:  parseAttributes(doc.Attributes),
	}
	if image := firstNonEmpty(doc.Image, doc.ImageURL); image != "" {
		md.Image = r.GatewayURL(image)
	}
	return md, nil
}

// parseAttributes accepts the list form [{trait_type, value}] and the map
// form {trait: value}.
func parseAttributes(raw any) []entity.NFTAttribute {
	switch attrs := raw.(type) {
	case []any:
		out := make([]entity.NFTAttribute, 0, len(attrs))
		for _, a := range attrs {
			m, ok := a.(map[string]any)
			if !ok {
				continue
			}
			trait := cast.ToString(m["trait_type"])
			if trait == "" {
				trait = cast.ToString(m["name"])
			}
			out = append(out, entity.NFTAttribute{TraitType: trait, Value: m["value"]})
		}
		return out
	case map[string]any:
		out := make([]entity.NFTAttribute, 0, len(attrs))
		for k, v := range attrs {
			out = append(out, entity.NFTAttribute{TraitType: k, Value: v})
		}
		return out
	}
	return nil
}

func normalizeURI(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri != "" && !strings.Contains(uri, ":") && !strings.Contains(uri, "/") {
		if decoded := utils.DecodeHexURI(uri); decoded != uri && strings.Contains(decoded, ":") {
			return strings.TrimSpace(decoded)
		}
	}
	return uri
}

func isHTTP(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isBareCID(uri string) bool {
	if strings.Contains(uri, "://") {
		return false
	}
	cid, _, _ := strings.Cut(uri, "/")
	return (strings.HasPrefix(cid, "Qm") && len(cid) == 46) ||
		(strings.HasPrefix(cid, "bafy") && len(cid) >= 50)
}

func isImagePath(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
