package subscriptions

type CreatePlanPayload struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=1000"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Discount    float64  `json:"discount" validate:"gte=0,lte=100"`
	Benefits    []string `json:"benefits" validate:"dive,max=200"`
	StartDate   string   `json:"start_date" validate:"omitempty,date"`
	EndDate     string   `json:"end_date" validate:"omitempty,date"`
	Status      string   `json:"status" validate:"omitempty,oneof=active inactive"`
}

type UpdatePlanPayload struct {
	Title       *string   `json:"title" validate:"omitempty,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=1000"`
	Price       *float64  `json:"price" validate:"omitempty,gt=0"`
	Discount    *float64  `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Benefits    *[]string `json:"benefits" validate:"omitempty,dive,max=200"`
	StartDate   *string   `json:"start_date" validate:"omitempty,date"`
	EndDate     *string   `json:"end_date" validate:"omitempty,date"`
	Status      *string   `json:"status" validate:"omitempty,oneof=active inactive"`
}

type CreateCheckoutPayload struct {
	PlanID int `json:"plan_id" validate:"required,gt=0"`
}

// CheckoutResponse carries the redirect URL for a plan upgrade session.
type CheckoutResponse struct {
	URL string `json:"url"`
}
