package sections

type CreateSectionPayload struct {
	NameEN       string `json:"name_en" validate:"required,max=200"`
	NameES       string `json:"name_es" validate:"max=200"`
	Published    bool   `json:"published"`
	EpisodeIndex *int   `json:"episode_index" validate:"omitempty,gte=0"`
}

type UpdateSectionPayload struct {
	NameEN       *string `json:"name_en" validate:"omitempty,max=200"`
	NameES       *string `json:"name_es" validate:"omitempty,max=200"`
	Published    *bool   `json:"published"`
	EpisodeIndex *int    `json:"episode_index" validate:"omitempty,gte=0"`
}
