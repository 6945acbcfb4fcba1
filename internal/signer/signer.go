// Package signer builds the authentication headers for recognition requests.
//
// A request is signed by sorting the union of its form parameters and the
// header fields (timestamp, random-str, app-id), joining them as key=value
// pairs with '&', appending '&secret=<secret>' and taking the lowercase hex
// MD5 of the result. The secret only ever influences the digest; it is never
// placed in a header or parameter.
package signer

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Wire names of the signed header fields.
const (
	HeaderTimestamp = "timestamp"
	HeaderNonce     = "random-str"
	HeaderAppID     = "app-id"
	HeaderSign      = "sign"
)

// NonceLength is the number of characters in a request nonce.
const NonceLength = 16

// Alphabet is the set nonce characters are drawn from.
const Alphabet = "AaBbCcDdEeFfGgHhIiJjKkLlMmNnOoPpQqRrSsTtUuVvWwXxYyZz0123456789"

// Errors
var (
	ErrEmptyAppID        = errors.New("signer: app id is empty")
	ErrEmptySecret       = errors.New("signer: secret is empty")
	ErrMissingHeader     = errors.New("signer: missing header field")
	ErrSignatureMismatch = errors.New("signer: signature mismatch")
)

// Credentials identify the application to the recognition service.
type Credentials struct {
	AppID  string
	Secret string
}

// Header is the authentication material attached to one request.
type Header struct {
	Timestamp int64
	Nonce     string
	AppID     string
	Signature string
}

// Fields returns the header under its wire names.
func (h Header) Fields() map[string]string {
	return map[string]string{
		HeaderTimestamp: strconv.FormatInt(h.Timestamp, 10),
		HeaderNonce:     h.Nonce,
		HeaderAppID:     h.AppID,
		HeaderSign:      h.Signature,
	}
}

// signedFields returns the fields that take part in the canonical string.
func (h Header) signedFields() map[string]string {
	f := h.Fields()
	delete(f, HeaderSign)
	return f
}

// Apply sets the header fields on an outgoing HTTP request header.
func (h Header) Apply(hdr http.Header) {
	for k, v := range h.Fields() {
		hdr.Set(k, v)
	}
}

// HeaderFromHTTP reads the signed fields back from an HTTP request header.
func HeaderFromHTTP(hdr http.Header) (Header, error) {
	var h Header
	for _, name := range []string{HeaderTimestamp, HeaderNonce, HeaderAppID, HeaderSign} {
		if hdr.Get(name) == "" {
			return h, fmt.Errorf("%w: %s", ErrMissingHeader, name)
		}
	}

	ts, err := strconv.ParseInt(hdr.Get(HeaderTimestamp), 10, 64)
	if err != nil {
		return h, fmt.Errorf("signer: parse timestamp: %w", err)
	}

	h.Timestamp = ts
	h.Nonce = hdr.Get(HeaderNonce)
	h.AppID = hdr.Get(HeaderAppID)
	h.Signature = hdr.Get(HeaderSign)
	return h, nil
}

// Signer signs request parameters with a fixed set of credentials.
type Signer struct {
	creds Credentials
	now   func() time.Time
	rand  io.Reader
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the time source used for the timestamp field.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// WithRand overrides the randomness used for nonces.
func WithRand(r io.Reader) Option {
	return func(s *Signer) { s.rand = r }
}

// New creates a Signer. Both the app id and the secret are required.
func New(creds Credentials, opts ...Option) (*Signer, error) {
	if creds.AppID == "" {
		return nil, ErrEmptyAppID
	}
	if creds.Secret == "" {
		return nil, ErrEmptySecret
	}

	s := &Signer{
		creds: creds,
		now:   time.Now,
		rand:  rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AppID returns the application id the signer signs for.
func (s *Signer) AppID() string {
	return s.creds.AppID
}

// Sign produces a fresh header for params. The returned map is params itself,
// unmodified.
func (s *Signer) Sign(params map[string]string) (Header, map[string]string, error) {
	nonce, err := Nonce(s.rand, NonceLength)
	if err != nil {
		return Header{}, nil, err
	}
	h := SignWith(params, s.creds, s.now().Unix(), nonce)
	return h, params, nil
}

// SignWith is the deterministic core of Sign: the same inputs always produce
// the same header.
func SignWith(params map[string]string, creds Credentials, timestamp int64, nonce string) Header {
	h := Header{
		Timestamp: timestamp,
		Nonce:     nonce,
		AppID:     creds.AppID,
	}
	h.Signature = Signature(CanonicalString(params, h.signedFields(), creds.Secret))
	return h
}

// CanonicalString builds the signing input. Keys are the byte-wise sorted
// union of params and fields; a key present in both takes the fields value.
func CanonicalString(params, fields map[string]string, secret string) string {
	keys := make([]string, 0, len(params)+len(fields))
	for k := range params {
		if _, dup := fields[k]; !dup {
			keys = append(keys, k)
		}
	}
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		v, ok := fields[k]
		if !ok {
			v = params[k]
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	b.WriteString("&secret=")
	b.WriteString(secret)
	return b.String()
}

// Signature returns the lowercase hex MD5 digest of the canonical string.
func Signature(canonical string) string {
	sum := md5.Sum([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the signature for params and h and compares it in
// constant time with h.Signature.
func Verify(params map[string]string, h Header, secret string) error {
	want := Signature(CanonicalString(params, h.signedFields(), secret))
	if subtle.ConstantTimeCompare([]byte(want), []byte(h.Signature)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}

// Nonce draws n characters uniformly from Alphabet. Bytes at or above the
// largest multiple of len(Alphabet) are rejected so every character is
// equally likely.
func Nonce(r io.Reader, n int) (string, error) {
	const limit = 256 - 256%len(Alphabet)

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("signer: read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
