package services

import (
	"github.com/google/uuid"
)

// UserStats is the caller-facing usage summary.
type UserStats struct {
	IsPremium                bool  `json:"is_premium"`
	FreeGenerationsRemaining int   `json:"free_generations_remaining"`
	RecipeCount              int64 `json:"recipe_count"`
	AnalysesToday            int   `json:"analyses_today"`
}

// AccountService answers the account-level endpoints: stats and deletion.
type AccountService struct {
	profiles ProfileServiceDB
	recipes  RecipeServiceDB
	usage    *UsageService
}

func NewAccountService(profiles ProfileServiceDB, recipes RecipeServiceDB, usage *UsageService) *AccountService {
	return &AccountService{
		profiles: profiles,
		recipes:  recipes,
		usage:    usage,
	}
}

// Stats aggregates the profile, the recipe count and today's analyses. A
// missing profile reads as a free account with nothing left.
func (s *AccountService) Stats(userID uuid.UUID) (*UserStats, error) {
	stats := &UserStats{}

	profile, err := s.profiles.GetProfileDB(userID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		stats.IsPremium = profile.IsPremium
		stats.FreeGenerationsRemaining = profile.FreeGenerationsRemaining
	}

	count, err := s.recipes.CountRecipesByUserDB(userID)
	if err != nil {
		return nil, err
	}
	stats.RecipeCount = count

	// Counter outages degrade this number to zero instead of failing the call
	analyses, err := s.usage.AnalysesToday(userID)
	if err == nil {
		stats.AnalysesToday = analyses
	}

	return stats, nil
}

// DeleteAccount removes the user's recipes with their children, then the
// profile row. Stored images stay in the bucket; they carry no identity.
func (s *AccountService) DeleteAccount(userID uuid.UUID) error {
	if err := s.recipes.DeleteUserRecipesDB(userID); err != nil {
		return err
	}
	return s.profiles.DeleteProfileDB(userID)
}
