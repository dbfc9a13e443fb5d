package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/shopping-planner/backend/internal/auth"
	"example.com/shopping-planner/backend/internal/repository"
	"example.com/shopping-planner/backend/internal/shopping"
)

const timeLayout = time.RFC3339

type AdminHandler struct {
	Repo *repository.AIRepository
}

// NewAdminHandler создает обработчик админских эндпоинтов.
func NewAdminHandler(repo *repository.AIRepository) *AdminHandler {
	return &AdminHandler{Repo: repo}
}

type AdminAIRequestResponse struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	RequestType     string          `json:"request_type"`
	Provider        string          `json:"provider"`
	Model           string          `json:"model"`
	Source          string          `json:"source"`
	Success         bool            `json:"success"`
	ErrorMessage    *string         `json:"error_message,omitempty"`
	CreatedAt       string          `json:"created_at"`
	Prompt          *string         `json:"prompt,omitempty"`
	RequestPayload  json.RawMessage `json:"request_payload,omitempty"`
	ResponsePayload json.RawMessage `json:"response_payload,omitempty"`
	RawResponse     *string         `json:"raw_response,omitempty"`
}

type AdminAIRequestsResponse struct {
	Total    int                      `json:"total"`
	Requests []AdminAIRequestResponse `json:"requests"`
}

type AdminUsageDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AdminUsageResponse struct {
	Users            int             `json:"users"`
	Products         int             `json:"products"`
	ActiveProducts   int             `json:"active_products"`
	Generations      int             `json:"generations"`
	AISuccess        int             `json:"ai_success"`
	KeywordFallbacks int             `json:"keyword_fallbacks"`
	Failures         int             `json:"failures"`
	GenerationsByDay []AdminUsageDay `json:"generations_by_day"`
}

// ListAIRequests возвращает журнал генераций с фильтрами.
func (h *AdminHandler) ListAIRequests(c echo.Context) error {
	limit, offset, err := parsePagination(c, 50, 200)
	if err != nil {
		return badRequest(c, err.Error())
	}

	filter, includePayloads, err := parseAIRequestFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	requests, err := h.Repo.ListRequests(c.Request().Context(), filter, limit, offset, includePayloads)
	if err != nil {
		return serverError(c)
	}

	total, err := h.Repo.CountRequests(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	response := make([]AdminAIRequestResponse, 0, len(requests))
	for _, req := range requests {
		item := AdminAIRequestResponse{
			ID:           req.ID,
			UserID:       req.UserID,
			RequestType:  req.RequestType,
			Provider:     req.Provider,
			Model:        req.Model,
			Source:       req.Source,
			Success:      req.Success,
			ErrorMessage: req.ErrorMessage,
			CreatedAt:    req.CreatedAt.Format(timeLayout),
		}

		if includePayloads {
			item.Prompt = req.Prompt
			if len(req.RequestPayload) > 0 {
				item.RequestPayload = json.RawMessage(req.RequestPayload)
			}
			if len(req.ResponsePayload) > 0 {
				item.ResponsePayload = json.RawMessage(req.ResponsePayload)
			}
			item.RawResponse = req.RawResponse
		}
		response = append(response, item)
	}

	return c.JSON(http.StatusOK, AdminAIRequestsResponse{
		Total:    total,
		Requests: response,
	})
}

// Usage возвращает агрегированную статистику генераций.
func (h *AdminHandler) Usage(c echo.Context) error {
	days, err := parseDays(c.QueryParam("days"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	stats, err := h.Repo.UsageStats(c.Request().Context(), days)
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid days")
		}
		return serverError(c)
	}

	byDay := make([]AdminUsageDay, 0, len(stats.GenerationsByDay))
	for _, day := range stats.GenerationsByDay {
		byDay = append(byDay, AdminUsageDay{
			Date:  day.Day.Format("2006-01-02"),
			Count: day.Count,
		})
	}

	return c.JSON(http.StatusOK, AdminUsageResponse{
		Users:            stats.Users,
		Products:         stats.Products,
		ActiveProducts:   stats.ActiveProducts,
		Generations:      stats.Generations,
		AISuccess:        stats.AISuccess,
		KeywordFallbacks: stats.KeywordFallbacks,
		Failures:         stats.Failures,
		GenerationsByDay: byDay,
	})
}

// AdminSet хранит нормализованные email администраторов.
type AdminSet map[string]struct{}

// NewAdminSet строит множество администраторов из списка email.
func NewAdminSet(emails []string) AdminSet {
	set := make(AdminSet, len(emails))
	for _, email := range emails {
		if normalized := normalizeEmail(email); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}

// Contains сообщает, является ли email администратором.
func (s AdminSet) Contains(email string) bool {
	_, ok := s[normalizeEmail(email)]
	return ok
}

// AdminMiddleware пропускает только пользователей из AdminSet.
func AdminMiddleware(users UserStore, admins AdminSet) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := auth.UserIDFromContext(c)
			if !ok {
				return unauthorized(c)
			}
			if len(admins) == 0 {
				return forbidden(c)
			}

			user, err := users.GetByID(c.Request().Context(), userID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return forbidden(c)
			case err != nil:
				return serverError(c)
			}

			if !admins.Contains(user.Email) {
				return forbidden(c)
			}
			return next(c)
		}
	}
}

func parseAIRequestFilter(c echo.Context) (repository.AIRequestFilter, bool, error) {
	filter := repository.AIRequestFilter{}

	if raw := strings.TrimSpace(c.QueryParam("user_id")); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return filter, false, errors.New("invalid user_id")
		}
		filter.UserID = &parsed
	}

	if raw := strings.TrimSpace(c.QueryParam("success")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, false, errors.New("invalid success")
		}
		filter.Success = &parsed
	}

	if raw := strings.ToLower(strings.TrimSpace(c.QueryParam("source"))); raw != "" {
		if raw != shopping.SourceAI && raw != shopping.SourceKeyword {
			return filter, false, errors.New("invalid source")
		}
		filter.Source = &raw
	}

	includePayloads := false
	if raw := strings.TrimSpace(c.QueryParam("include_payloads")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, false, errors.New("invalid include_payloads")
		}
		includePayloads = parsed
	}

	return filter, includePayloads, nil
}

func parseDays(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 7, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, errors.New("invalid days")
	}
	if parsed > 30 {
		parsed = 30
	}
	return parsed, nil
}

func parsePagination(c echo.Context, defaultLimit, maxLimit int) (int, int, error) {
	limit := defaultLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if parsed > maxLimit {
			parsed = maxLimit
		}
		limit = parsed
	}

	offset := 0
	if raw := strings.TrimSpace(c.QueryParam("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = parsed
	}

	return limit, offset, nil
}
