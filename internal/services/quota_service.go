package services

import (
	"recipe_reel_go_backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// QuotaDecision is the quota ledger's verdict for one billable request.
type QuotaDecision struct {
	Allowed       bool
	IsPremium     bool
	FreeRemaining int
}

// Mode is the accounting label persisted on the recipe row.
func (d QuotaDecision) Mode() models.GenerationMode {
	if d.IsPremium {
		return models.GenerationModePremium
	}
	return models.GenerationModeFree
}

// QuotaService is the quota ledger: premium users always pass, free users
// pass while they have generations left.
type QuotaService struct {
	profiles ProfileServiceDB
}

func NewQuotaService(profiles ProfileServiceDB) *QuotaService {
	return &QuotaService{profiles: profiles}
}

// CanGenerate reports whether the user may perform billable work. A missing
// profile is a free user with nothing left. Store errors are returned so the
// admission layer can answer 500 rather than silently granting quota.
func (s *QuotaService) CanGenerate(userID uuid.UUID) (QuotaDecision, error) {
	profile, err := s.profiles.GetProfileDB(userID)
	if err != nil {
		return QuotaDecision{}, err
	}
	if profile == nil {
		return QuotaDecision{}, nil
	}
	return QuotaDecision{
		Allowed:       profile.IsPremium || profile.FreeGenerationsRemaining > 0,
		IsPremium:     profile.IsPremium,
		FreeRemaining: profile.FreeGenerationsRemaining,
	}, nil
}

// Debit consumes one free generation after work was persisted. It never
// fails the request: a lost debit costs revenue, not correctness. Premium
// users are filtered out here and again in the store's WHERE clause.
func (s *QuotaService) Debit(userID uuid.UUID, decision QuotaDecision) {
	if decision.IsPremium {
		return
	}
	debited, err := s.profiles.DecrementFreeGenerationsDB(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to debit free generation")
		return
	}
	if !debited {
		log.Warn().Str("user_id", userID.String()).Msg("Debit found no free generation to take")
	}
}
