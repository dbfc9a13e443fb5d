package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/shopping-planner/backend/internal/ai"
	"example.com/shopping-planner/backend/internal/auth"
	"example.com/shopping-planner/backend/internal/events"
	"example.com/shopping-planner/backend/internal/notifications"
	"example.com/shopping-planner/backend/internal/repository"
	"example.com/shopping-planner/backend/internal/shopping"
)

const providerKeyword = "keyword"

var errInvalidBudget = errors.New("max_budget must be greater than 0")

type ListGenerator interface {
	Generate(ctx context.Context, req shopping.Request) (shopping.Response, error)
}

type RequestLogger interface {
	LogRequest(ctx context.Context, log repository.AIRequestLog) error
}

type ShoppingHandler struct {
	Generator       ListGenerator
	AIRepo          RequestLogger
	Notifier        *notifications.Hub
	Events          events.Publisher
	MaxPromptLength int
	Logger          *slog.Logger
}

// NewShoppingHandler создает обработчик генерации списков покупок.
func NewShoppingHandler(generator ListGenerator, aiRepo RequestLogger, notifier *notifications.Hub, publisher events.Publisher, maxPromptLength int, logger *slog.Logger) *ShoppingHandler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ShoppingHandler{
		Generator:       generator,
		AIRepo:          aiRepo,
		Notifier:        notifier,
		Events:          publisher,
		MaxPromptLength: maxPromptLength,
		Logger:          logger,
	}
}

type GenerateListRequest struct {
	Prompt      string              `json:"prompt" validate:"required"`
	Preferences *PreferencesRequest `json:"preferences"`
}

type PreferencesRequest struct {
	MaxBudget         *decimal.Decimal `json:"max_budget"`
	ExcludeCategories []string         `json:"exclude_categories" validate:"omitempty,max=50,dive,max=100"`
}

// Generate создает список покупок по текстовому запросу.
func (h *ShoppingHandler) Generate(c echo.Context) error {
	response, err := h.generate(c)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, response)
}

func (h *ShoppingHandler) generate(c echo.Context) (shopping.Response, error) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return shopping.Response{}, auth.ErrInvalidToken
	}

	var req GenerateListRequest
	if err := bindAndValidate(c, &req); err != nil {
		return shopping.Response{}, err
	}

	if err := shopping.ValidatePrompt(req.Prompt, h.MaxPromptLength); err != nil {
		return shopping.Response{}, err
	}

	request, err := toShoppingRequest(req)
	if err != nil {
		return shopping.Response{}, err
	}

	ctx, trace := ai.WithTrace(c.Request().Context())
	response, err := h.Generator.Generate(ctx, request)
	h.logRequest(c.Request().Context(), userID, request, trace, response, err)
	if err != nil {
		return response, err
	}

	h.publish(c.Request().Context(), userID, response)
	return response, nil
}

func (h *ShoppingHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return unauthorized(c)
	case errors.Is(err, errInvalidPayload), errors.Is(err, errValidation), errors.Is(err, errInvalidBudget):
		return badRequest(c, err.Error())
	case errors.Is(err, shopping.ErrInvalidPrompt):
		return badRequest(c, err.Error())
	case errors.Is(err, shopping.ErrCatalogUnavailable):
		return unavailable(c, "catalog unavailable")
	default:
		h.Logger.Error("shopping list generation failed", slog.String("error", err.Error()))
		return serverError(c)
	}
}

func (h *ShoppingHandler) logRequest(ctx context.Context, userID uuid.UUID, request shopping.Request, trace *ai.Trace, response shopping.Response, err error) {
	if h.AIRepo == nil {
		return
	}

	requestPayload, _ := json.Marshal(requestPayloadOf(request))
	log := repository.AIRequestLog{
		UserID:         userID,
		RequestType:    repository.RequestTypeShoppingList,
		Provider:       providerKeyword,
		Source:         response.Source,
		Prompt:         request.Prompt,
		RequestPayload: requestPayload,
		RawResponse:    string(trace.Raw),
		Success:        err == nil,
	}
	if trace.Provider != "" {
		log.Provider = trace.Provider
		log.Model = trace.Model
	}
	if trace.Prompt != "" {
		log.Prompt = trace.Prompt
	}
	if err == nil {
		log.ResponsePayload, _ = json.Marshal(response.Summary)
	}

	// Ошибка модели сохраняется и тогда, когда список собран по ключевым словам.
	failure := err
	if failure == nil {
		failure = trace.Err
	}
	if failure != nil {
		message := failure.Error()
		log.ErrorMessage = &message
	}

	if logErr := h.AIRepo.LogRequest(ctx, log); logErr != nil {
		h.Logger.Warn("store ai request failed", slog.String("error", logErr.Error()))
	}
}

func (h *ShoppingHandler) publish(ctx context.Context, userID uuid.UUID, response shopping.Response) {
	event := events.NewListGenerated(userID, response)

	if h.Notifier != nil {
		h.Notifier.Publish(userID, notifications.Event{Type: notifications.EventListGenerated, Data: event})
	}

	if err := h.Events.PublishListGenerated(ctx, event); err != nil {
		h.Logger.Warn("publish list generated failed", slog.String("user_id", userID.String()), slog.String("error", err.Error()))
	}

	h.Logger.Info("shopping list generated",
		slog.String("user_id", userID.String()),
		slog.String("source", response.Source),
		slog.Int("items", response.Summary.TotalItems),
		slog.String("estimated_cost", response.Summary.EstimatedCost.StringFixed(2)),
	)
}

func toShoppingRequest(req GenerateListRequest) (shopping.Request, error) {
	request := shopping.Request{Prompt: strings.TrimSpace(req.Prompt)}
	if req.Preferences == nil {
		return request, nil
	}

	if budget := req.Preferences.MaxBudget; budget != nil {
		if !budget.IsPositive() {
			return request, errInvalidBudget
		}
		request.Preferences.MaxBudget = budget
	}

	for _, category := range req.Preferences.ExcludeCategories {
		if normalized := strings.ToLower(strings.TrimSpace(category)); normalized != "" {
			request.Preferences.ExcludeCategories = append(request.Preferences.ExcludeCategories, normalized)
		}
	}

	return request, nil
}

type requestPayload struct {
	Prompt            string           `json:"prompt"`
	MaxBudget         *decimal.Decimal `json:"max_budget,omitempty"`
	ExcludeCategories []string         `json:"exclude_categories,omitempty"`
}

func requestPayloadOf(request shopping.Request) requestPayload {
	return requestPayload{
		Prompt:            request.Prompt,
		MaxBudget:         request.Preferences.MaxBudget,
		ExcludeCategories: request.Preferences.ExcludeCategories,
	}
}
