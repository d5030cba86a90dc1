package fields

import "github.com/google/uuid"

// UserSign is the sign up / sign in request.
type UserSign struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// UserIn is the public view of the authenticated user.
type UserIn struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type SignUpResponse struct {
	Message string `json:"message"`
}

type SignInResponse struct {
	Message string        `json:"message"`
	Data    TokenResponse `json:"data"`
}

type GoodsCreate struct {
	Name          string  `json:"name" binding:"required,min=1,max=255"`
	Category      *string `json:"category" binding:"omitempty,max=100"`
	Price         float64 `json:"price" binding:"gte=0"`
	StockQuantity int     `json:"stock_quantity" binding:"gte=0"`
}

// GoodsUpdate is a partial update; nil fields are left untouched.
type GoodsUpdate struct {
	Name          *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Category      *string  `json:"category" binding:"omitempty,max=100"`
	Price         *float64 `json:"price" binding:"omitempty,gte=0"`
	StockQuantity *int     `json:"stock_quantity" binding:"omitempty,gte=0"`
}

func (u GoodsUpdate) Empty() bool {
	return u.Name == nil && u.Category == nil && u.Price == nil && u.StockQuantity == nil
}

type SalesCreate struct {
	GoodsID  uuid.UUID `json:"goods_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,gt=0"`
	SaleDate string    `json:"sale_date" binding:"omitempty,iso_date"`
}

// SalesUpdate is a partial update; nil fields are left untouched.
type SalesUpdate struct {
	Quantity *int    `json:"quantity" binding:"omitempty,gt=0"`
	SaleDate *string `json:"sale_date" binding:"omitempty,iso_date"`
}

type RestockInferenceCreate struct {
	GoodsID       uuid.UUID `json:"goods_id" binding:"required"`
	TotalQuantity int       `json:"total_quantity" binding:"gte=0"`
	FuturePreds   JSONMap   `json:"future_preds"`
}

type RestockInferenceUpdate struct {
	TotalQuantity *int    `json:"total_quantity" binding:"omitempty,gte=0"`
	FuturePreds   JSONMap `json:"future_preds"`
}

// ListResponse is the paginated envelope used by list endpoints.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type ChatRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

type ChatResponse struct {
	Message  string `json:"message"`
	Response string `json:"response"`
}
