package anvato

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Credentials authenticate requests against an MCP endpoint.
type Credentials struct {
	MCPURL     string `json:"mcp_url"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// Complete reports whether all three values are non-blank.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.MCPURL) != "" &&
		strings.TrimSpace(c.PublicKey) != "" &&
		strings.TrimSpace(c.PrivateKey) != ""
}

const requestBodyFormat = `<?xml version="1.0" encoding="utf-8"?><request><type>%s</type><params></params></request>`

// RequestBody is the XML document posted to the API and covered by the signature.
func RequestBody(t RequestType) string {
	return fmt.Sprintf(requestBodyFormat, t)
}

// Sign returns base64(HMAC-SHA256(body + ts, privateKey)).
func Sign(body string, ts int64, privateKey string) string {
	mac := hmac.New(sha256.New, []byte(privateKey))
	mac.Write([]byte(body))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// BuildURL assembles <mcp_url>/api?ts=..&sgn=..&id=..[&query].
// Fails with ErrMissingSettings before doing anything else when creds are incomplete.
func BuildURL(creds Credentials, t RequestType, p SearchParams, ts int64) (string, error) {
	if !creds.Complete() {
		return "", ErrMissingSettings
	}
	if !t.Valid() {
		return "", fmt.Errorf("unsupported request type %q", t)
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(creds.MCPURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", &Error{Kind: KindMissingSettings, Message: "The MCP URL setting is not a valid URL.", Err: err}
	}
	// The signed query is appended verbatim, so the base must not carry its own.
	if base.RawQuery != "" || base.ForceQuery || base.Fragment != "" {
		return "", &Error{Kind: KindMissingSettings, Message: "The MCP URL setting must not contain a query or fragment."}
	}
	q, err := BuildQuery(p)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(base.String())
	b.WriteString("/api?ts=")
	b.WriteString(strconv.FormatInt(ts, 10))
	b.WriteString("&sgn=")
	b.WriteString(url.QueryEscape(Sign(RequestBody(t), ts, creds.PrivateKey)))
	b.WriteString("&id=")
	b.WriteString(url.QueryEscape(strings.TrimSpace(creds.PublicKey)))
	if enc := q.Encode(); enc != "" {
		b.WriteByte('&')
		b.WriteString(enc)
	}
	return b.String(), nil
}
