// Package rewardctx builds the reward context handed to a landing page or a
// rewarded activity.
//
// The context is a canonical JSON object
//
//	{"metadata":{...},"tokens":<earner token or null>,"v":1}
//
// with keys sorted at every level and no insignificant whitespace, so the
// same state always encodes to the same bytes.
package rewardctx

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/psicash/internal/common"
)

// Version is the value of the "v" field.
const Version = 1

// ParamName is the query or fragment key the context is attached under.
const ParamName = "psicash"

// Context is the data the reward context carries.
type Context struct {
	Metadata map[string]string
	// Tokens is the earner token, nil when none is held.
	Tokens *string
}

// Marshal returns the canonical JSON encoding of c.
func Marshal(c Context) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"metadata":`)
	if err := writeObject(&buf, c.Metadata); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	buf.WriteString(`,"tokens":`)
	if c.Tokens == nil {
		buf.WriteString("null")
	} else if err := writeString(&buf, *c.Tokens); err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}
	fmt.Fprintf(&buf, `,"v":%d}`, Version)
	return buf.Bytes(), nil
}

// ActivityData returns the base64 encoded context for a rewarded activity.
// An earner token is required.
func ActivityData(c Context) (string, error) {
	if c.Tokens == nil || *c.Tokens == "" {
		return "", fmt.Errorf("%w: earner token required", common.ErrNoValidTokens)
	}
	b, err := Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// ModifyLandingPage attaches the context to rawURL as psicash=<encoded>.
// When rawURL has a fragment the pair is appended to the query, otherwise
// it becomes the fragment. The scheme, host and path are kept verbatim.
func ModifyLandingPage(rawURL string, c Context) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrURLParse, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute url", common.ErrURLParse, rawURL)
	}

	b, err := Marshal(c)
	if err != nil {
		return "", err
	}
	pair := ParamName + "=" + Encode(string(b))

	rest, fragment, hasFragment := strings.Cut(rawURL, "#")
	base, query, _ := strings.Cut(rest, "?")
	if hasFragment && fragment != "" {
		if query == "" {
			query = pair
		} else {
			query += "&" + pair
		}
	} else {
		fragment = pair
	}

	var sb strings.Builder
	sb.WriteString(base)
	if query != "" {
		sb.WriteByte('?')
		sb.WriteString(query)
	}
	sb.WriteByte('#')
	sb.WriteString(fragment)
	return sb.String(), nil
}

// Encode percent-encodes every byte of s outside A-Z a-z 0-9 - _ . ~,
// spaces included.
func Encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
