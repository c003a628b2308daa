package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// CanonicalURL normalises an article link into the dedup key form.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: articleUrl", ErrMissingField)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse article url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("article url %q is not absolute", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if strings.HasPrefix(strings.ToLower(key), "utm_") {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}

	return u.String(), nil
}

// ContentHash fingerprints an article by normalized title and canonical URL.
func ContentHash(title, canonicalURL string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(title), " "))
	sum := sha256.Sum256([]byte(normalized + "\n" + canonicalURL))
	return hex.EncodeToString(sum[:])
}
