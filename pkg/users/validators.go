package users

// RegisterPayload is the multipart body for POST /register. The optional
// profilePicture file is pulled from the multipart form by the handler.
type RegisterPayload struct {
	Firstname         string `form:"firstname" json:"firstname" validate:"required,max=100"`
	Lastname          string `form:"lastname" json:"lastname" validate:"max=100"`
	Email             string `form:"email" json:"email" validate:"required,email"`
	Password          string `form:"password" json:"password" validate:"required,min=8"`
	Mobile            string `form:"mobile" json:"mobile" validate:"max=20"`
	Location          string `form:"location" json:"location" validate:"max=200"`
	Gender            string `form:"gender" json:"gender" validate:"omitempty,oneof=male female other"`
	DateOfBirth       string `form:"dateOfBirth" json:"dateOfBirth" validate:"omitempty,date"`
	PreferredLanguage string `form:"preferredLanguage" json:"preferredLanguage" validate:"omitempty,language"`
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordPayload struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordPayload struct {
	Password string `json:"password" validate:"required,min=8"`
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type EditProfilePayload struct {
	Firstname   *string `form:"firstname" json:"firstname" validate:"omitempty,max=100"`
	Lastname    *string `form:"lastname" json:"lastname" validate:"omitempty,max=100"`
	Mobile      *string `form:"mobile" json:"mobile" validate:"omitempty,max=20"`
	Location    *string `form:"location" json:"location" validate:"omitempty,max=200"`
	Gender      *string `form:"gender" json:"gender" validate:"omitempty,oneof=male female other"`
	DateOfBirth *string `form:"dateOfBirth" json:"dateOfBirth" validate:"omitempty,date"`
}

type PreferredLanguagePayload struct {
	PreferredLanguage string `json:"preferredLanguage" validate:"required,language"`
}

type AdminVerifyCodePayload struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

type AdminSetNewPasswordPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=6"`
	Password string `json:"password" validate:"required,min=8"`
}

type MakeAdminPayload struct {
	Email     string `json:"email" validate:"required,email"`
	Firstname string `json:"firstname" validate:"omitempty,max=100"`
	Lastname  string `json:"lastname" validate:"omitempty,max=100"`
	Password  string `json:"password" validate:"omitempty,min=8"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}
