package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/vital-portal/vital/internal/auth"
	"github.com/vital-portal/vital/internal/config"
	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/events"
	"github.com/vital-portal/vital/internal/repository"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)


// Session is an issued access token.
type Session struct {
	UID       string
	Token     string
	ExpiresAt time.Time
}

// LoginResult tells the client where the account should land next.
type LoginResult struct {
	Session  Session
	Role     domain.Role
	Redirect string
}

// VillagerRegistration is the sign-up payload for citizens.
type VillagerRegistration struct {
	Name         string
	Email        string
	Phone        string
	Password     string
	Jurisdiction domain.Jurisdiction
}

// AuthorityRegistration is the sign-up payload for officers.
type AuthorityRegistration struct {
	Name         string
	Email        string
	Phone        string
	Password     string
	Role         domain.Role
	Jurisdiction domain.Jurisdiction
}

// AuthService coordinates registration, login, and authority verification.
type AuthService struct {
	accounts    repository.AccountRepository
	resets      repository.PasswordResetRepository
	villagers   repository.VillagerRepository
	authorities repository.AuthorityRepository
	identity    *IdentityService
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	resetTTL    time.Duration

	// Now is the service clock; tests replace it.
	Now func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	AccountRepo       repository.AccountRepository
	PasswordResetRepo repository.PasswordResetRepository
	VillagerRepo      repository.VillagerRepository
	AuthorityRepo     repository.AuthorityRepository
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:    deps.AccountRepo,
		resets:      deps.PasswordResetRepo,
		villagers:   deps.VillagerRepo,
		authorities: deps.AuthorityRepo,
		identity:    NewIdentityService(deps.VillagerRepo, deps.AuthorityRepo),
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:  cfg.Auth.BcryptCost,
		resetTTL:    time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		Now:         time.Now,
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Identity exposes the principal resolver sharing this service's repositories.
func (s *AuthService) Identity() *IdentityService {
	return s.identity
}

// RegisterVillager creates an account and a villager profile. Villagers are
// verified on registration.
func (s *AuthService) RegisterVillager(ctx context.Context, in VillagerRegistration) (*domain.VillagerProfile, Session, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, Session{}, apperrors.NewValidationError("name required", nil)
	}
	if !hasPanchayat(in.Jurisdiction) {
		return nil, Session{}, apperrors.NewValidationError("panchayat required", nil)
	}
	account, err := s.createAccount(ctx, in.Email, in.Password)
	if err != nil {
		return nil, Session{}, err
	}

	profile := &domain.VillagerProfile{
		UID:          account.ID,
		Name:         strings.TrimSpace(in.Name),
		Email:        account.Email,
		Phone:        strings.TrimSpace(in.Phone),
		Jurisdiction: in.Jurisdiction,
	}
	if err := s.villagers.Create(ctx, profile); err != nil {
		return nil, Session{}, apperrors.MapError(err)
	}
	session, err := s.issue(account.ID)
	if err != nil {
		return nil, Session{}, err
	}
	return profile, session, nil
}

// RegisterAuthority creates an account and a pending authority profile that
// an admin must verify before the officer can act.
func (s *AuthService) RegisterAuthority(ctx context.Context, in AuthorityRegistration) (*domain.AuthorityProfile, Session, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, Session{}, apperrors.NewValidationError("name required", nil)
	}
	if !in.Role.IsAuthority() {
		return nil, Session{}, apperrors.NewValidationError("role must be one of village_incharge, pdo, tdo, ddo", map[string]any{
			"role": in.Role,
		})
	}
	if err := validateJurisdiction(in.Role, in.Jurisdiction); err != nil {
		return nil, Session{}, err
	}
	account, err := s.createAccount(ctx, in.Email, in.Password)
	if err != nil {
		return nil, Session{}, err
	}

	profile := &domain.AuthorityProfile{
		UID:                account.ID,
		Name:               strings.TrimSpace(in.Name),
		Email:              account.Email,
		Phone:              strings.TrimSpace(in.Phone),
		Role:               in.Role,
		Jurisdiction:       in.Jurisdiction,
		VerificationStatus: domain.VerificationPending,
	}
	if err := s.authorities.Create(ctx, profile); err != nil {
		return nil, Session{}, apperrors.MapError(err)
	}
	session, err := s.issue(account.ID)
	if err != nil {
		return nil, Session{}, err
	}
	return profile, session, nil
}

// CreateAdmin provisions a verified admin profile. Only the operator CLI calls it.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*domain.AuthorityProfile, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	account, err := s.createAccount(ctx, email, password)
	if err != nil {
		return nil, err
	}
	profile := &domain.AuthorityProfile{
		UID:                account.ID,
		Name:               strings.TrimSpace(name),
		Email:              account.Email,
		Role:               domain.RoleAdmin,
		VerificationStatus: domain.VerificationVerified,
	}
	if err := s.authorities.Create(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// Login checks credentials and reports where the account should go next:
// its dashboard, the registration form, or the verification status page.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotAuthenticated("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !auth.PasswordMatches(account.PasswordHash, password) {
		return nil, apperrors.NewNotAuthenticated("invalid credentials")
	}
	session, err := s.issue(account.ID)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{Session: session}
	principal, err := s.identity.ResolvePrincipal(ctx, account.ID)
	switch {
	case err == nil:
		result.Role = principal.Role
		result.Redirect = auth.DashboardPath(principal.Role)
	case apperrors.HasCode(err, apperrors.CodeUnverified), apperrors.HasCode(err, apperrors.CodeProfileMissing):
		result.Redirect = apperrors.ToDomainError(err).Redirect()
	default:
		return nil, err
	}
	return result, nil
}

// AuthorityStatus returns the caller's authority profile whatever its
// verification state, for the status page.
func (s *AuthService) AuthorityStatus(ctx context.Context, uid string) (*domain.AuthorityProfile, error) {
	profile, err := s.authorities.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewProfileMissing(uid)
		}
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// RequestPasswordReset stores a reset token. Unknown emails return a nil
// token and no error so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordReset, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Info("password reset for unknown email")
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}

	reset := &domain.PasswordReset{
		AccountID: account.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return nil, apperrors.MapError(err)
	}
	return reset, nil
}

// ConfirmPasswordReset validates the reset token and updates password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	reset, err := s.resets.GetByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("reset token invalid", nil)
		}
		return apperrors.MapError(err)
	}
	now := s.Now()
	if reset.UsedAt != nil || now.After(reset.ExpiresAt) {
		return apperrors.NewValidationError("reset token expired or used", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.resets.MarkUsed(ctx, reset.ID, now); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("reset token expired or used", nil)
		}
		return apperrors.MapError(err)
	}
	return apperrors.MapError(s.accounts.UpdatePassword(ctx, reset.AccountID, hash))
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, uid, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	account, err := s.accounts.GetByID(ctx, uid)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !auth.PasswordMatches(account.PasswordHash, currentPassword) {
		return apperrors.NewNotAuthenticated("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return apperrors.MapError(s.accounts.UpdatePassword(ctx, uid, hash))
}

// ListPendingAuthorities returns registrations awaiting review.
func (s *AuthService) ListPendingAuthorities(ctx context.Context, actor domain.Principal) ([]domain.AuthorityProfile, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewNotAuthorized("admin only", nil)
	}
	status := domain.VerificationPending
	list, err := s.authorities.List(ctx, repository.AuthorityFilter{Status: &status, Limit: repository.MaxPageSize})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// VerifyAuthority records the admin's review. Rejection keeps the reason so
// the officer sees it on the status page.
func (s *AuthService) VerifyAuthority(ctx context.Context, actor domain.Principal, uid string, approve bool, reason string) (*domain.AuthorityProfile, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewNotAuthorized("admin only", nil)
	}
	profile, err := s.authorities.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("authority", map[string]any{"uid": uid})
		}
		return nil, apperrors.MapError(err)
	}
	if profile.Role == domain.RoleAdmin {
		return nil, apperrors.NewConflict("admin profiles are not reviewed", nil)
	}

	reason = strings.TrimSpace(reason)
	if approve {
		profile.VerificationStatus = domain.VerificationVerified
	} else {
		if reason == "" {
			return nil, apperrors.NewValidationError("rejection reason required", nil)
		}
		profile.VerificationStatus = domain.VerificationRejected
	}
	profile.VerificationReason = reason
	if err := s.authorities.Update(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, s.logger, s.Now, events.Event{
		Type:  events.EventAuthorityVerified,
		Actor: events.ActorFrom(actor),
		Payload: events.AuthorityVerifiedPayload{
			UID:    profile.UID,
			Status: profile.VerificationStatus,
			Reason: reason,
		},
	})
	return profile, nil
}

func (s *AuthService) createAccount(ctx context.Context, email, password string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewValidationError("valid email required", nil)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	account := &domain.Account{Email: email, PasswordHash: hash}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, apperrors.MapError(err)
	}
	return account, nil
}

func (s *AuthService) issue(uid string) (Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(uid)
	if err != nil {
		return Session{}, apperrors.NewInternalError(err)
	}
	return Session{UID: uid, Token: token, ExpiresAt: exp}, nil
}

func validatePassword(password string) error {
	if err := auth.CheckPasswordPolicy(password); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return nil
}

func hasPanchayat(j domain.Jurisdiction) bool {
	return strings.TrimSpace(j.PanchayatID) != "" || strings.TrimSpace(j.PanchayatName) != ""
}

// validateJurisdiction requires the units a role's scope is matched on.
func validateJurisdiction(role domain.Role, j domain.Jurisdiction) error {
	missing := []string{}
	hasDistrict := j.DistrictID != "" || strings.TrimSpace(j.District) != ""
	hasTaluk := j.TalukID != "" || strings.TrimSpace(j.Taluk) != ""
	switch role.Scope() {
	case domain.LevelPanchayat:
		if !hasPanchayat(j) {
			missing = append(missing, "panchayat")
		}
	case domain.LevelTaluk:
		if !hasTaluk {
			missing = append(missing, "taluk")
		}
	}
	if role.Scope() != domain.LevelGlobal && !hasDistrict {
		missing = append(missing, "district")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("jurisdiction incomplete", map[string]any{"missing": missing})
	}
	return nil
}
