package books

// CreateBookPayload is the multipart body for POST /create. The optional
// cover image file is pulled from the multipart form by the handler.
type CreateBookPayload struct {
	Title string `form:"title" json:"title" validate:"required,max=200"`
}

type UpdateBookPayload struct {
	Title      *string `form:"title" json:"title" validate:"omitempty,max=200"`
	Percentage *int    `form:"percentage" json:"percentage" validate:"omitempty,gte=0,lte=100"`
}

type UpdateEpisodePayload struct {
	Percentage *int `form:"percentage" json:"percentage" validate:"omitempty,gte=0,lte=100"`
}

type AnswerPayload struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// QuestionResponse carries a question served to the conversation flow.
type QuestionResponse struct {
	Question string `json:"question"`
}
