package storage

import (
	"errors"
	"net/url"
	"strings"
)

// ErrDeliveryDomainMissing is returned when no delivery domain is configured.
var ErrDeliveryDomainMissing = errors.New("delivery domain not configured")

// Mapper converts between storage keys and public delivery URLs.
type Mapper struct {
	domain string
	bucket string
}

// NewMapper creates a mapper for the CDN base URL and the bucket behind it.
func NewMapper(domain, bucket string) *Mapper {
	return &Mapper{domain: strings.TrimSuffix(domain, "/"), bucket: bucket}
}

// DeliveryURL joins the delivery domain and key with exactly one slash.
// Each key segment is escaped so ExtractKey returns the key unchanged.
func (m *Mapper) DeliveryURL(key string) (string, error) {
	if m.domain == "" {
		return "", ErrDeliveryDomainMissing
	}
	segments := strings.Split(strings.TrimPrefix(key, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return m.domain + "/" + strings.Join(segments, "/"), nil
}

// ExtractKey accepts a raw key, a delivery URL or an S3 URL and returns the key.
func (m *Mapper) ExtractKey(ref string) string {
	ref = strings.TrimSpace(ref)
	if !strings.Contains(ref, "://") {
		return strings.TrimPrefix(ref, "/")
	}

	// delivery URLs may carry a path prefix of their own
	if m.domain != "" && strings.HasPrefix(ref, m.domain+"/") {
		key := strings.TrimPrefix(ref, m.domain+"/")
		if i := strings.IndexAny(key, "?#"); i >= 0 {
			key = key[:i]
		}
		if unescaped, err := url.PathUnescape(key); err == nil {
			key = unescaped
		}
		return strings.TrimPrefix(key, "/")
	}

	u, err := url.Parse(ref)
	if err != nil {
		return strings.TrimPrefix(ref, "/")
	}
	key := strings.TrimPrefix(u.Path, "/")

	// path-style S3: https://s3.<region>.amazonaws.com/<bucket>/<key>
	if m.bucket != "" && strings.HasPrefix(u.Host, "s3") && strings.HasSuffix(u.Host, ".amazonaws.com") {
		key = strings.TrimPrefix(key, m.bucket+"/")
	}
	return key
}
