package questions

type QuestionPayload struct {
	TextEN string `json:"text_en" validate:"required,max=500"`
	TextES string `json:"text_es" validate:"max=500"`
}

type CreateQuestionsPayload struct {
	SectionID int               `json:"section_id" validate:"required,gt=0"`
	Questions []QuestionPayload `json:"questions" validate:"required,min=1,dive"`
}

type UpdateQuestionPayload struct {
	TextEN *string `json:"text_en" validate:"omitempty,max=500"`
	TextES *string `json:"text_es" validate:"omitempty,max=500"`
}
