package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/dukerupert/tandem/internal/model"

	webpush "github.com/SherClockHolmes/webpush-go"
)

var (
	// ErrExpired means the push service no longer knows the subscription
	// (404 or 410) and it should be deleted.
	ErrExpired = errors.New("push subscription expired")
	// ErrRateLimited is returned on a 429 from the push service.
	ErrRateLimited = errors.New("push service rate limited")
)

// Urgency hints how soon the device should wake for a message.
type Urgency = webpush.Urgency

const (
	UrgencyNormal = webpush.UrgencyNormal
	UrgencyHigh   = webpush.UrgencyHigh
)

// Payload is the JSON delivered to the service worker. Urgency and Topic are
// transport headers and are not part of the body.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`

	Urgency Urgency `json:"-"`
	Topic   string  `json:"-"`
}

// Config holds VAPID configuration.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string
	TTL             int
	Timeout         time.Duration
}

// Service sends web push messages signed with one VAPID key pair.
type Service struct {
	publicKey  string
	privateKey string
	subject    string
	ttl        int
	httpClient *http.Client
}

func NewService(cfg Config) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 86400
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		subject:    cfg.Subject,
		ttl:        ttl,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// VAPIDPublicKey returns the key browsers need to subscribe.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// topicChars is the URL-safe base64 alphabet push services accept in Topic.
var topicChars = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// Send delivers payload to one subscription.
func (s *Service) Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	opts := &webpush.Options{
		HTTPClient:      s.httpClient,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      s.subject,
		TTL:             s.ttl,
		Urgency:         payload.Urgency,
	}
	// A newer message with the same topic replaces an undelivered one.
	if topicChars.MatchString(payload.Topic) {
		opts.Topic = payload.Topic
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, opts)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return ErrExpired
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}

// GenerateVAPIDKeys returns a new P-256 key pair in the unpadded base64url
// form browsers and webpush-go expect.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate P-256 key: %w", err)
	}
	publicKey = base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes())
	privateKey = base64.RawURLEncoding.EncodeToString(key.Bytes())
	return publicKey, privateKey, nil
}

// ValidateVAPIDKeys checks that the pair decodes and that the public key
// belongs to the private key.
func ValidateVAPIDKeys(publicKey, privateKey string) error {
	privBytes, err := base64.RawURLEncoding.DecodeString(privateKey)
	if err != nil {
		return fmt.Errorf("decode private key: %w", err)
	}
	priv, err := ecdh.P256().NewPrivateKey(privBytes)
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}
	pubBytes, err := base64.RawURLEncoding.DecodeString(publicKey)
	if err != nil {
		return fmt.Errorf("decode public key: %w", err)
	}
	pub, err := ecdh.P256().NewPublicKey(pubBytes)
	if err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}
	if !priv.PublicKey().Equal(pub) {
		return errors.New("public key does not match private key")
	}
	return nil
}
