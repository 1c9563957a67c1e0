package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	Issuer = "room-booking"

	AudienceLogin   = "admin-login"
	AudienceSession = "admin-session"
	AudienceVerify  = "application-verify"
)

var (
	ErrTokenInvalid = errors.New("token không hợp lệ")
	ErrTokenExpired = errors.New("token đã hết hạn")
	ErrNoSecret     = errors.New("JWT_SECRET không được thiết lập")
)

// AdminClaims dùng chung cho magic link (có Nonce) và session token.
type AdminClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Nonce string `json:"nonce,omitempty"`
	jwt.RegisteredClaims
}

// VerifyClaims đi kèm đơn đăng ký vừa tạo.
type VerifyClaims struct {
	ApplicationID string `json:"application_id"`
	Email         string `json:"email"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	now    func() time.Time
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// WithClock đổi nguồn thời gian, chủ yếu cho test.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	return &TokenManager{secret: m.secret, now: now}
}

func (m *TokenManager) registered(audience, jti string, ttl time.Duration) jwt.RegisteredClaims {
	now := m.now()
	if jti == "" {
		jti = uuid.NewString()
	}
	return jwt.RegisteredClaims{
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{audience},
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (m *TokenManager) sign(claims jwt.Claims) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrNoSecret
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// IssueLoginToken tạo token magic link; jti trùng với id của LoginChallenge.
func (m *TokenManager) IssueLoginToken(jti, email, nonce string, ttl time.Duration) (string, error) {
	return m.sign(AdminClaims{
		Email:            email,
		Nonce:            nonce,
		RegisteredClaims: m.registered(AudienceLogin, jti, ttl),
	})
}

func (m *TokenManager) IssueSessionToken(email, name string, ttl time.Duration) (string, *AdminClaims, error) {
	claims := AdminClaims{
		Email:            email,
		Name:             name,
		RegisteredClaims: m.registered(AudienceSession, "", ttl),
	}
	token, err := m.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return token, &claims, nil
}

func (m *TokenManager) IssueVerifyToken(applicationID, email string, ttl time.Duration) (string, error) {
	return m.sign(VerifyClaims{
		ApplicationID:    applicationID,
		Email:            email,
		RegisteredClaims: m.registered(AudienceVerify, "", ttl),
	})
}

func (m *TokenManager) ParseLoginToken(tokenStr string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	if err := m.parse(tokenStr, AudienceLogin, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *TokenManager) ParseSessionToken(tokenStr string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	if err := m.parse(tokenStr, AudienceSession, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *TokenManager) ParseVerifyToken(tokenStr string) (*VerifyClaims, error) {
	claims := &VerifyClaims{}
	if err := m.parse(tokenStr, AudienceVerify, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *TokenManager) parse(tokenStr, audience string, claims jwt.Claims) error {
	if len(m.secret) == 0 {
		return ErrNoSecret
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
