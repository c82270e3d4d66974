package model

type GetProgressionRequest struct {
	// UserID is the request user if empty.
	UserID string `json:"user_id" form:"user_id"`
}

type GetProgressionResponse struct {
	Progression Progression `json:"progression"`
}

type GetAchievementsRequest struct {
	UserID string `json:"user_id" form:"user_id"`
}

type GetAchievementsResponse struct {
	CatalogVersion int           `json:"catalog_version"`
	TotalPoints    int           `json:"total_points"`
	Achievements   []Achievement `json:"achievements"`
}

type RecalculateRequest struct {
	// UserID limits the recalculation to one user, all users are recalculated
	// if it is empty.
	UserID string `json:"user_id"`
}

type RecalculateResponse struct {
	UsersProcessed       int                  `json:"users_processed"`
	AchievementsUnlocked int                  `json:"achievements_unlocked"`
	Failures             []RecalculateFailure `json:"failures"`
	Cancelled            bool                 `json:"cancelled"`
}

type UpdateTimezoneRequest struct {
	Timezone string `json:"timezone"`
}

type UpdateTimezoneResponse struct {
	Progression Progression        `json:"progression"`
	Events      []ProgressionEvent `json:"events"`
}
