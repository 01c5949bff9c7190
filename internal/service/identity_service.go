package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/repository"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// IdentityService maps an authenticated account to the principal every
// workflow call receives.
type IdentityService struct {
	villagers   repository.VillagerRepository
	authorities repository.AuthorityRepository
}

// NewIdentityService constructs the service.
func NewIdentityService(villagers repository.VillagerRepository, authorities repository.AuthorityRepository) *IdentityService {
	return &IdentityService{villagers: villagers, authorities: authorities}
}

// ResolvePrincipal looks up the profile behind uid. Authority profiles take
// precedence; an authority that is not verified yields Unverified carrying the
// state and the admin's reason.
func (s *IdentityService) ResolvePrincipal(ctx context.Context, uid string) (domain.Principal, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return domain.Principal{}, apperrors.NewNotAuthenticated("no active session")
	}

	authority, err := s.authorities.GetByUID(ctx, uid)
	switch {
	case err == nil:
		if authority.VerificationStatus != domain.VerificationVerified {
			state := authority.VerificationStatus
			if state == "" {
				state = domain.VerificationPending
			}
			return domain.Principal{}, apperrors.NewUnverified(string(state), authority.VerificationReason)
		}
		return domain.Principal{
			UID:          authority.UID,
			Name:         authority.Name,
			Role:         authority.Role,
			Jurisdiction: authority.Jurisdiction,
			Verified:     true,
		}, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return domain.Principal{}, apperrors.NewTransient(err)
	}

	villager, err := s.villagers.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Principal{}, apperrors.NewProfileMissing(uid)
		}
		return domain.Principal{}, apperrors.NewTransient(err)
	}
	return domain.Principal{
		UID:          villager.UID,
		Name:         villager.Name,
		Role:         domain.RoleVillager,
		Jurisdiction: villager.Jurisdiction,
		Verified:     true,
	}, nil
}
