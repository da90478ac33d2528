package baemin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dutchbamin/together/pkg/config"
	pkgerrors "github.com/dutchbamin/together/pkg/errors"
	"github.com/dutchbamin/together/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("baemin base url is required")
	errLoggerRequired  = errors.New("baemin logger is required")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// TokenSource supplies the bearer token for authenticated calls. There is
// exactly one source of truth for the token; callers never hold copies.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, bool)

func (f TokenSourceFunc) Token(ctx context.Context) (string, bool) {
	return f(ctx)
}

// Client is the typed HTTP client for the remote Dutch Bamin backend.
// The backend owns all business logic; this client only shapes requests,
// classifies failures, and decodes snapshots.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
	logg    *logger.Logger
}

// NewClient validates the upstream configuration and builds a client.
// The backend serves everything under /api, so that prefix is fixed here
// once. tokens may be nil for unauthenticated use (signup, login,
// browsing).
func NewClient(cfg config.UpstreamConfig, tokens TokenSource, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}
	base += "/api"
	if logg == nil {
		return nil, errLoggerRequired
	}
	return &Client{
		baseURL: base,
		httpc:   &http.Client{Timeout: cfg.CallTimeout},
		tokens:  tokens,
		logg:    logg,
	}, nil
}

// WithTokenSource returns a copy of the client bound to a token source.
func (c *Client) WithTokenSource(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	if payload != nil {
		if err := validate.Struct(payload); err != nil {
			return formatValidationErrors(err)
		}
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request")
		}
		body = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token, ok := c.tokens.Token(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, path))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code := pkgerrors.FromStatus(resp.StatusCode)
		return pkgerrors.New(code, fmt.Sprintf("%s %s: upstream status %d", method, path, resp.StatusCode)).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return "is invalid"
}

// ===== Auth =====

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	var out SignupResponse
	if err := c.do(ctx, http.MethodPost, epSignup, nil, &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, epLogin, nil, &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ===== Stores =====

// StoreQuery narrows the store list; both fields are optional.
type StoreQuery struct {
	Category string
	SortBy   string
}

func (c *Client) ListStores(ctx context.Context, q StoreQuery) (*StoreListResponse, error) {
	query := url.Values{}
	if q.Category != "" {
		query.Set("category", q.Category)
	}
	if q.SortBy != "" {
		query.Set("sortBy", q.SortBy)
	}
	var out StoreListResponse
	if err := c.do(ctx, http.MethodGet, epStores, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetStore(ctx context.Context, storeID string) (*StoreDetail, error) {
	var out StoreDetail
	if err := c.do(ctx, http.MethodGet, epStoreDetail(storeID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMenus(ctx context.Context, storeID string) (*MenuListResponse, error) {
	var out MenuListResponse
	if err := c.do(ctx, http.MethodGet, epStoreMenus(storeID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ===== Rooms =====

func (c *Client) CreateRoom(ctx context.Context, req CreateRoomRequest) (*CreateRoomResponse, error) {
	var out CreateRoomResponse
	if err := c.do(ctx, http.MethodPost, epRooms, nil, &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRoom(ctx context.Context, roomID string) (*RoomDetail, error) {
	var out RoomDetail
	if err := c.do(ctx, http.MethodGet, epRoomDetail(roomID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRoom(ctx context.Context, roomID string) error {
	return c.do(ctx, http.MethodDelete, epRoomDetail(roomID), nil, nil, nil)
}

// ===== Participants =====

func (c *Client) JoinRoom(ctx context.Context, roomID string, req JoinRoomRequest) (*JoinRoomResponse, error) {
	var out JoinRoomResponse
	if err := c.do(ctx, http.MethodPost, epParticipants(roomID), nil, &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LeaveRoom(ctx context.Context, roomID, userID string) error {
	return c.do(ctx, http.MethodDelete, epParticipant(roomID, userID), nil, nil, nil)
}

// ===== Cart =====

func (c *Client) GetCart(ctx context.Context, roomID string) (*Cart, error) {
	var out Cart
	if err := c.do(ctx, http.MethodGet, epCart(roomID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddMenu(ctx context.Context, roomID string, req AddMenuRequest) (*AddMenuResponse, error) {
	var out AddMenuResponse
	if err := c.do(ctx, http.MethodPost, epCartMenu(roomID), nil, &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCartItem(ctx context.Context, roomID, cartItemID string) error {
	return c.do(ctx, http.MethodDelete, epCartItem(roomID, cartItemID), nil, nil, nil)
}

// ===== Orders =====

func (c *Client) CreateOrder(ctx context.Context, roomID string, req CreateOrderRequest) (*CreateOrderResponse, error) {
	var out CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, epOrder(roomID), nil, &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ===== Settlement =====

func (c *Client) SelectSettlementMethod(ctx context.Context, roomID string, req SelectSettlementMethodRequest) (*SelectSettlementMethodResponse, error) {
	var out SelectSettlementMethodResponse
	if err := c.do(ctx, http.MethodPost, epSettlementMethod(roomID), nil, &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CalculateAmount(ctx context.Context, roomID, userID string) (*CalculatedAmount, error) {
	var out CalculatedAmount
	if err := c.do(ctx, http.MethodGet, epCalculate(roomID, userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ===== Payment =====

func (c *Client) RequestPayment(ctx context.Context, roomID string, req PaymentRequestRequest) (*PaymentRequestResponse, error) {
	var out PaymentRequestResponse
	if err := c.do(ctx, http.MethodPost, epPaymentRequest(roomID), nil, &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CompletePayment(ctx context.Context, roomID, userID string, req CompletePaymentRequest) (*CompletePaymentResponse, error) {
	var out CompletePaymentResponse
	if err := c.do(ctx, http.MethodPost, epPaymentComplete(roomID, userID), nil, &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPaymentStatus(ctx context.Context, roomID string) (*PaymentStatus, error) {
	var out PaymentStatus
	if err := c.do(ctx, http.MethodGet, epPaymentStatus(roomID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
