package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndhu-booking/room-booking-server/apperror"
	"github.com/ndhu-booking/room-booking-server/captcha"
	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/notify"
	"github.com/ndhu-booking/room-booking-server/utils"
)

type AuthStore interface {
	GetActiveAdmin(ctx context.Context, email string) (*models.Admin, error)
	CreateLoginChallenge(ctx context.Context, ch *models.LoginChallenge) error
	GetLoginChallenge(ctx context.Context, id string) (*models.LoginChallenge, error)
	UseLoginChallenge(ctx context.Context, id string, at time.Time) (bool, error)
	RevokeToken(ctx context.Context, rt *models.RevokedToken) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpiredAuth(ctx context.Context, now time.Time) error
}

type AuthConfig struct {
	EmailDomain string
	FrontendURL string
	LoginTTL    time.Duration
	SessionTTL  time.Duration
}

type Session struct {
	Token  string
	Admin  *models.Admin
	Claims *utils.AdminClaims
}

// AuthService: magic link 10 phút -> (kèm CAPTCHA) -> session token 24h.
type AuthService struct {
	store    AuthStore
	tokens   *utils.TokenManager
	notifier notify.Notifier
	captcha  captcha.Verifier
	cfg      AuthConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthService(store AuthStore, tokens *utils.TokenManager, notifier notify.Notifier, verifier captcha.Verifier, cfg AuthConfig, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		captcha:  verifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// RequestLogin phát magic link cho mọi email đúng tên miền trường.
func (s *AuthService) RequestLogin(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	if !utils.IsInstitutionalEmail(email, s.cfg.EmailDomain) {
		return ErrInstitutionalEmail
	}

	nonce, err := utils.GenerateNonce()
	if err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	hash, err := utils.HashNonce(nonce)
	if err != nil {
		return fmt.Errorf("hash nonce: %w", err)
	}

	now := s.now()
	ch := &models.LoginChallenge{
		ID:        uuid.NewString(),
		Email:     email,
		NonceHash: hash,
		ExpiresAt: now.Add(s.cfg.LoginTTL),
	}
	if err := s.store.CreateLoginChallenge(ctx, ch); err != nil {
		return fmt.Errorf("create login challenge: %w", err)
	}

	token, err := s.tokens.IssueLoginToken(ch.ID, email, nonce, s.cfg.LoginTTL)
	if err != nil {
		return fmt.Errorf("issue login token: %w", err)
	}

	link := strings.TrimRight(s.cfg.FrontendURL, "/") + "/admin/verify?token=" + url.QueryEscape(token)
	err = s.notifier.Notify(ctx, notify.KindLoginLink, email, map[string]any{
		"Link":      link,
		"ExpiresIn": humanDuration(s.cfg.LoginTTL),
	})
	if err != nil {
		return apperror.Wrap(ErrLoginMailFailed, err)
	}

	s.logger.InfoContext(ctx, "login link issued", slog.String("email", email), slog.String("challenge_id", ch.ID))

	// Dọn challenge/denylist hết hạn; lỗi ở đây không ảnh hưởng đăng nhập.
	if err := s.store.PurgeExpiredAuth(ctx, now); err != nil {
		s.logger.WarnContext(ctx, "purge expired auth rows failed", slog.Any("error", err))
	}
	return nil
}

// VerifyLogin kiểm tra CAPTCHA và magic link rồi cấp session token.
func (s *AuthService) VerifyLogin(ctx context.Context, loginToken, captchaToken, remoteIP string) (*Session, error) {
	if err := s.captcha.Verify(ctx, captchaToken, remoteIP); err != nil {
		if errors.Is(err, captcha.ErrFailed) {
			return nil, apperror.Wrap(ErrCaptcha, err)
		}
		return nil, fmt.Errorf("captcha: %w", err)
	}

	claims, err := s.tokens.ParseLoginToken(loginToken)
	if err != nil {
		return nil, apperror.Wrap(ErrInvalidToken, err)
	}

	ch, err := s.store.GetLoginChallenge(ctx, claims.ID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load login challenge: %w", err)
	}
	now := s.now()
	if ch.UsedAt != nil {
		return nil, ErrLoginLinkUsed
	}
	if now.After(ch.ExpiresAt) || ch.Email != claims.Email || !utils.VerifyNonce(ch.NonceHash, claims.Nonce) {
		return nil, ErrInvalidToken
	}

	admin, err := s.store.GetActiveAdmin(ctx, claims.Email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrNotAdmin
	}
	if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}

	used, err := s.store.UseLoginChallenge(ctx, ch.ID, now)
	if err != nil {
		return nil, err
	}
	if !used {
		return nil, ErrLoginLinkUsed
	}

	token, sessionClaims, err := s.tokens.IssueSessionToken(admin.Email, admin.Name, s.cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	s.logger.InfoContext(ctx, "admin signed in", slog.String("email", admin.Email), slog.String("jti", sessionClaims.ID))
	return &Session{Token: token, Admin: admin, Claims: sessionClaims}, nil
}

// Authenticate kiểm tra session token: chữ ký, hạn, denylist và admin còn hoạt động.
func (s *AuthService) Authenticate(ctx context.Context, sessionToken string) (*models.Admin, *utils.AdminClaims, error) {
	claims, err := s.tokens.ParseSessionToken(sessionToken)
	if err != nil {
		return nil, nil, apperror.Wrap(ErrInvalidToken, err)
	}
	revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, nil, ErrTokenRevoked
	}
	admin, err := s.store.GetActiveAdmin(ctx, claims.Email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, ErrNotAdmin
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load admin: %w", err)
	}
	return admin, claims, nil
}

// Logout đưa jti của session vào denylist tới khi token tự hết hạn.
func (s *AuthService) Logout(ctx context.Context, claims *utils.AdminClaims) error {
	expires := s.now().Add(s.cfg.SessionTTL)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	err := s.store.RevokeToken(ctx, &models.RevokedToken{
		JTI:       claims.ID,
		Email:     claims.Email,
		RevokedAt: s.now(),
		ExpiresAt: expires,
	})
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 && d >= time.Hour {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
