// Package account drives the authenticated user flows: login, signup,
// order history, and seller product registration.
package account

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/api"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/forms"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/session"
)

// Order is one entry of the user's order history.
type Order struct {
	OrderNumber  string          `json:"orderNumber"`
	Name         string          `json:"name"`
	TotalAmount  int             `json:"totalAmount"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	OrderAddress string          `json:"orderAddress"`
	OrderStatus  string          `json:"orderStatus"`
	CreatedDate  string          `json:"createdDate"`
	OrderList    []OrderedItem   `json:"orderList"`
}

// OrderedItem is one product within a historical order.
type OrderedItem struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Amount     int             `json:"amount"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type Service struct {
	gw       api.Doer
	sessions *session.Manager
	rules    *forms.Validator
}

func NewService(gw api.Doer, sessions *session.Manager, rules *forms.Validator) *Service {
	return &Service{gw: gw, sessions: sessions, rules: rules}
}

// Login validates the form locally, then authenticates. The bearer
// credential itself is written by the gateway when the response rotates one
// in; this method only flips the session state and relays the server
// message.
func (s *Service) Login(ctx context.Context, form forms.Login) (string, error) {
	if errs := s.rules.Validate(form); len(errs) > 0 {
		return "", &forms.Error{Fields: errs}
	}

	env, err := s.gw.Do(ctx, http.MethodPost, "/login", form, nil, false)
	if err != nil {
		return "", err
	}

	s.sessions.Login()
	return env.Message, nil
}

// Logout tells the server, then drops the local session either way: a
// failed logout call must not leave this client authenticated.
func (s *Service) Logout(ctx context.Context) error {
	_, err := s.gw.Do(ctx, http.MethodPost, "/logout", nil, nil, true)
	s.sessions.Logout()
	return err
}

// Signup validates the form locally and registers the account. The user
// logs in separately afterwards.
func (s *Service) Signup(ctx context.Context, form forms.Signup) (string, error) {
	if errs := s.rules.Validate(form); len(errs) > 0 {
		return "", &forms.Error{Fields: errs}
	}

	payload := map[string]string{
		"email":         form.Email,
		"password":      form.Password,
		"name":          form.Name,
		"address":       form.Address,
		"detailAddress": form.DetailAddress,
		"phone":         form.Phone,
	}
	env, err := s.gw.Do(ctx, http.MethodPost, "/signup", payload, nil, false)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// RegisterProduct validates the form and puts a new product up for sale.
// The call is authenticated; the server decides whether the credential is
// allowed to register products.
func (s *Service) RegisterProduct(ctx context.Context, form forms.NewProduct) (string, error) {
	if errs := s.rules.Validate(form); len(errs) > 0 {
		return "", &forms.Error{Fields: errs}
	}

	// Price goes over the wire as a bare number, the way the web client
	// sent it; decimal's own marshaling would quote it.
	payload := map[string]any{
		"name":        form.Name,
		"description": form.Description,
		"price":       json.Number(form.Price.String()),
		"amount":      form.Amount,
		"status":      form.Status,
	}
	env, err := s.gw.Do(ctx, http.MethodPost, "/products", payload, nil, true)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Orders fetches the authenticated user's order history.
func (s *Service) Orders(ctx context.Context) ([]Order, error) {
	env, err := s.gw.Do(ctx, http.MethodGet, "/users/orders", nil, nil, true)
	if err != nil {
		return nil, err
	}

	var orders []Order
	if err := json.Unmarshal(env.Data, &orders); err != nil {
		return nil, fmt.Errorf("decode order history: %w", err)
	}
	return orders, nil
}
