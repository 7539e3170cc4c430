package commerce

import (
	"errors"
	"net/http"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrAuthRequired       = errors.New("please log in first")
	ErrPreorderOnly       = errors.New("this item is available for pre-order only")
	ErrNotPreorderProduct = errors.New("this item is not available for pre-order")
	ErrOutOfStock         = errors.New("not enough stock")
	ErrInsufficientStock  = errors.New("not enough stock for that quantity")
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrProfileIncomplete  = errors.New("complete your profile and upload a valid ID before checking out")
	ErrCartItemNotFound   = errors.New("item is not in your cart")
	ErrOrderNotFound      = errors.New("order not found")
)

var errCodes = map[error]int{
	ErrProductNotFound:    http.StatusNotFound,
	ErrAuthRequired:       http.StatusUnauthorized,
	ErrPreorderOnly:       http.StatusConflict,
	ErrNotPreorderProduct: http.StatusConflict,
	ErrOutOfStock:         http.StatusConflict,
	ErrInsufficientStock:  http.StatusConflict,
	ErrEmptyCart:          http.StatusBadRequest,
	ErrProfileIncomplete:  http.StatusPreconditionFailed,
	ErrCartItemNotFound:   http.StatusNotFound,
	ErrOrderNotFound:      http.StatusNotFound,
}
