package naming

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
)

// Environment variable naming the service-account key file.
const credentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"

// Signs storage object paths into presigned URLs.
//
// Sign takes an object path of the form "/bucket/object", the HTTP method
// the URL must authorize, and the content type the request will carry
// (empty for none). The returned URL embeds its own expiry, so plans hold
// no credentials.
type Signer interface {
	Sign(path, method, contentType string) (string, error)
}

// Signs URLs with a service-account key using the V2 signing scheme.
type URLSigner struct {
	accessID string
	key      []byte
	now      func() time.Time
}

// Creates a [URLSigner] from service-account JSON key material.
func NewURLSigner(keyJSON []byte) (*URLSigner, error) {
	cfg, err := google.JWTConfigFromJSON(keyJSON)
	if err != nil {
		return nil, fmt.Errorf("parsing service account key: %w", err)
	}
	return &URLSigner{accessID: cfg.Email, key: cfg.PrivateKey, now: time.Now}, nil
}

// Creates a [URLSigner] from the key file named by the
// GOOGLE_APPLICATION_CREDENTIALS environment variable.
func NewURLSignerFromEnv() (*URLSigner, error) {
	path := os.Getenv(credentialsEnv)
	if path == "" {
		return nil, errors.New(credentialsEnv + " is not set")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading service account key: %w", err)
	}
	return NewURLSigner(data)
}

// Sign implements [Signer]. The URL expires one build timeout after now.
func (s *URLSigner) Sign(path, method, contentType string) (string, error) {
	bucket, object, ok := splitObjectPath(path)
	if !ok {
		return "", fmt.Errorf("invalid object path %q", path)
	}

	url, err := storage.SignedURL(bucket, object, &storage.SignedURLOptions{
		GoogleAccessID: s.accessID,
		PrivateKey:     s.key,
		Method:         method,
		Expires:        s.now().Add(BuildTimeout),
		ContentType:    contentType,
		Scheme:         storage.SigningSchemeV2,
	})
	if err != nil {
		return "", fmt.Errorf("signing %q: %w", path, err)
	}
	return url, nil
}

// Splits an object path of the form "/bucket/object..." into its bucket and
// object components.
func splitObjectPath(p string) (bucket, object string, ok bool) {
	bucket, object, found := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}
