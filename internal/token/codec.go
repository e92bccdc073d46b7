// Package token はメンバーの内部IDと外部公開用トークンの相互変換を提供する。
//
// トークンはHS256署名のJWTで、subクレームにはXChaCha20-Poly1305で封緘した
// 内部IDを格納する。署名鍵と封緘鍵はプロセス起動時に注入される秘密鍵から
// HKDF-SHA256で導出するため、秘密鍵なしでは偽造も内部IDの読み取りもできない。
// トークンは永続化せず、必要になるたびに再発行する。
package token

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// DefaultTTL はトークンの既定の有効期間。
	DefaultTTL = 10 * time.Hour

	// DefaultIssuer はissクレームの既定値。
	DefaultIssuer = "teamboard"

	// MinSecretLength は秘密鍵の最小バイト長。
	MinSecretLength = 32
)

// ErrSecretTooShort は秘密鍵がMinSecretLengthに満たない場合のエラー。
var ErrSecretTooShort = fmt.Errorf("token secret must be at least %d bytes", MinSecretLength)

// Comparison は2つのトークンが同一メンバーを指すかどうかの判定結果。
type Comparison int

const (
	// Invalid はいずれかのトークンが検証できず、判定できないことを示す。
	// 「異なる」とは区別して扱うこと。
	Invalid Comparison = iota
	// Same は両トークンが同一メンバーを指すことを示す。
	Same
	// Different は両トークンが異なるメンバーを指すことを示す。
	Different
)

// String はComparisonの文字列表現を返す。
func (c Comparison) String() string {
	switch c {
	case Same:
		return "same"
	case Different:
		return "different"
	default:
		return "invalid"
	}
}

// Option はCodecの生成オプション。
type Option func(*Codec)

// WithClock は現在時刻の取得関数を差し替える。テストで有効期限を検証する際に使う。
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithIssuer はissクレームの値を設定する。
func WithIssuer(issuer string) Option {
	return func(c *Codec) { c.issuer = issuer }
}

// WithLogger は検証失敗理由の出力先ロガーを設定する。
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) { c.logger = logger }
}

// Codec はメンバーIDとトークンを相互変換する。
// 生成後は読み取り専用のため、複数のgoroutineから同時に使ってよい。
type Codec struct {
	signKey []byte
	aead    cipher.AEAD
	ttl     time.Duration
	issuer  string
	now     func() time.Time
	logger  *slog.Logger
	parser  *jwt.Parser
}

// claims はトークンに格納するクレーム。
type claims struct {
	jwt.RegisteredClaims
}

// NewCodec は秘密鍵と有効期間からCodecを生成する。
// ttlが0以下の場合はDefaultTTLを使う。
func NewCodec(secret []byte, ttl time.Duration, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	signKey, err := deriveKey(secret, "teamboard identity token signing", 32)
	if err != nil {
		return nil, err
	}
	sealKey, err := deriveKey(secret, "teamboard identity token sealing", chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(sealKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity sealer: %w", err)
	}

	c := &Codec{
		signKey: signKey,
		aead:    aead,
		ttl:     ttl,
		issuer:  DefaultIssuer,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	return c, nil
}

// deriveKey はHKDF-SHA256で用途別の鍵を導出する。
func deriveKey(secret []byte, info string, size int) ([]byte, error) {
	key := make([]byte, size)
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// TTL はトークンの有効期間を返す。
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode はメンバーIDを封緘・署名したトークンを返す。
// 同じIDでも呼び出しごとに異なるトークンになる。
func (c *Codec) Encode(id int64) (string, error) {
	sealed, err := c.seal(id)
	if err != nil {
		return "", err
	}

	now := c.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sealed,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})

	signed, err := tok.SignedString(c.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign identity token: %w", err)
	}
	return signed, nil
}

// Decode はトークンを検証してメンバーIDを返す。
// 署名不正、期限切れ、形式不正などの検証失敗では(0, false)を返す。
// 失敗理由はログにのみ出力し、呼び出し側には返さない。
func (c *Codec) Decode(tokenString string) (int64, bool) {
	if tokenString == "" {
		c.logFailure("empty token", nil)
		return 0, false
	}

	var cl claims
	if _, err := c.parser.ParseWithClaims(tokenString, &cl, func(*jwt.Token) (any, error) {
		return c.signKey, nil
	}); err != nil {
		c.logFailure("token verification failed", err)
		return 0, false
	}

	id, err := c.unseal(cl.Subject)
	if err != nil {
		c.logFailure("identity unseal failed", err)
		return 0, false
	}
	return id, true
}

// SameIdentity は2つのトークンが同一メンバーを指すかを判定する。
// いずれかの検証に失敗した場合はInvalidを返す。
func (c *Codec) SameIdentity(a, b string) Comparison {
	idA, ok := c.Decode(a)
	if !ok {
		return Invalid
	}
	idB, ok := c.Decode(b)
	if !ok {
		return Invalid
	}
	if idA == idB {
		return Same
	}
	return Different
}

// seal はIDを nonce || ciphertext の形で暗号化し、base64url文字列にする。
func (c *Codec) seal(id int64) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+8+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	var plain [8]byte
	binary.BigEndian.PutUint64(plain[:], uint64(id))

	out := c.aead.Seal(nonce, nonce, plain[:], []byte(c.issuer))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// unseal はsealの逆変換を行う。
func (c *Codec) unseal(s string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("malformed subject: %w", err)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return 0, errors.New("subject too short")
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], []byte(c.issuer))
	if err != nil {
		return 0, fmt.Errorf("subject authentication failed: %w", err)
	}
	if len(plain) != 8 {
		return 0, errors.New("unexpected identity length")
	}
	return int64(binary.BigEndian.Uint64(plain)), nil
}

func (c *Codec) logFailure(reason string, err error) {
	attrs := []any{slog.String("reason", reason)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	c.logger.Warn("identity token rejected", attrs...)
}
