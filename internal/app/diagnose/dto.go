package diagnose

import "gamesage/internal/domain/inference"

type Request struct {
	Platform            string   `json:"platform" validate:"max=64"`
	AgeMax              *int     `json:"age_max" validate:"omitempty,gte=0"`
	MultiplayerRequired bool     `json:"multiplayer_required"`
	OfflineRequired     bool     `json:"offline_required"`
	IncludeGenres       []string `json:"include_genres" validate:"omitempty,dive,required"`
	ExcludeGenres       []string `json:"exclude_genres" validate:"omitempty,dive,required"`
	MaxPlaytime         *int     `json:"max_playtime" validate:"omitempty,gte=0"`
	Page                int      `json:"page" validate:"gte=0,lte=1000000"`
	PageSize            int      `json:"page_size" validate:"gte=0"`
}

type Response struct {
	Items      []inference.Candidate `json:"items"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}
