package coupons

type CreateCouponPayload struct {
	Name      string  `json:"name" validate:"required,max=100"`
	Code      string  `json:"code" validate:"required,max=50"`
	Discount  float64 `json:"discount" validate:"required,gt=0,lte=100"`
	StartDate string  `json:"start_date" validate:"omitempty,date"`
	EndDate   string  `json:"end_date" validate:"omitempty,date"`
	Status    string  `json:"status" validate:"omitempty,oneof=active inactive"`
}

type UpdateCouponPayload struct {
	Name      *string  `json:"name" validate:"omitempty,max=100"`
	Code      *string  `json:"code" validate:"omitempty,max=50"`
	Discount  *float64 `json:"discount" validate:"omitempty,gt=0,lte=100"`
	StartDate *string  `json:"start_date" validate:"omitempty,date"`
	EndDate   *string  `json:"end_date" validate:"omitempty,date"`
	Status    *string  `json:"status" validate:"omitempty,oneof=active inactive"`
}

type ListCouponsPayload struct {
	Status *string `query:"status" validate:"omitempty,oneof=active inactive"`
}

type ApplyCouponPayload struct {
	Code       string  `json:"code" validate:"required"`
	TotalPrice float64 `json:"totalPrice" validate:"required,gt=0"`
}

type ApplyCouponResponse struct {
	Code       string  `json:"code"`
	Discount   float64 `json:"discount"`
	FinalPrice float64 `json:"final_price"`
}
