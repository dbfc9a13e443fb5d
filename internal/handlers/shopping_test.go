package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/shopping-planner/backend/internal/auth"
	"example.com/shopping-planner/backend/internal/events"
	"example.com/shopping-planner/backend/internal/notifications"
	"example.com/shopping-planner/backend/internal/repository"
	"example.com/shopping-planner/backend/internal/shopping"
)

type testValidator struct {
	validate *validator.Validate
}

func (v testValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

type fakeGenerator struct {
	response shopping.Response
	err      error
	got      shopping.Request
	calls    int
}

func (g *fakeGenerator) Generate(_ context.Context, req shopping.Request) (shopping.Response, error) {
	g.calls++
	g.got = req
	return g.response, g.err
}

type fakeRequestLog struct {
	logs []repository.AIRequestLog
}

func (l *fakeRequestLog) LogRequest(_ context.Context, log repository.AIRequestLog) error {
	l.logs = append(l.logs, log)
	return nil
}

type fakePublisher struct {
	events []events.ListGenerated
	err    error
}

func (p *fakePublisher) PublishListGenerated(_ context.Context, event events.ListGenerated) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = testValidator{validate: validator.New()}
	return e
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleShoppingResponse() shopping.Response {
	id := int64(3)
	tent := shopping.MatchedItem{
		SuggestedItem:  shopping.SuggestedItem{Name: "tent", Category: "shelter", UnitPrice: decimal.RequireFromString("120"), Quantity: 1},
		CatalogID:      &id,
		ResolvedPrice:  decimal.RequireFromString("129.99"),
		InStock:        true,
		AvailableStock: 4,
		Discount:       decimal.RequireFromString("10"),
	}
	lantern := shopping.MatchedItem{
		SuggestedItem: shopping.SuggestedItem{Name: "lantern, led", Category: "lighting", UnitPrice: decimal.RequireFromString("15"), Quantity: 2},
		ResolvedPrice: decimal.RequireFromString("15"),
	}
	items := []shopping.MatchedItem{tent, lantern}

	return shopping.Response{
		Prompt:      "camping trip",
		Source:      shopping.SourceAI,
		Categories:  shopping.Categories(items),
		Items:       items,
		Summary:     shopping.Summarize(items),
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

type shoppingFixture struct {
	handler   *ShoppingHandler
	generator *fakeGenerator
	log       *fakeRequestLog
	publisher *fakePublisher
	hub       *notifications.Hub
}

func newShoppingFixture() shoppingFixture {
	generator := &fakeGenerator{response: sampleShoppingResponse()}
	log := &fakeRequestLog{}
	publisher := &fakePublisher{}
	hub := notifications.NewHub()

	return shoppingFixture{
		handler:   NewShoppingHandler(generator, log, hub, publisher, 500, discardLogger()),
		generator: generator,
		log:       log,
		publisher: publisher,
		hub:       hub,
	}
}

func serve(t *testing.T, handler echo.HandlerFunc, userID *uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shopping-lists/generate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	if userID != nil {
		c.Set(auth.ContextUserIDKey, *userID)
	}

	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

// TestGenerateSuccess проверяет ответ, журнал, SSE и событие Kafka.
func TestGenerateSuccess(t *testing.T) {
	fx := newShoppingFixture()
	userID := uuid.New()

	stream, unsubscribe := fx.hub.Subscribe(userID)
	defer unsubscribe()

	rec := serve(t, fx.handler.Generate, &userID, `{"prompt":" camping trip ","preferences":{"max_budget":"200","exclude_categories":[" food ",""]}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body shopping.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected json body, got %v", err)
	}
	if len(body.Items) != 2 || body.Summary.TotalItems != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}

	got := fx.generator.got
	if got.Prompt != "camping trip" {
		t.Fatalf("expected trimmed prompt, got %q", got.Prompt)
	}
	if got.Preferences.MaxBudget == nil || !got.Preferences.MaxBudget.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected budget: %v", got.Preferences.MaxBudget)
	}
	if len(got.Preferences.ExcludeCategories) != 1 || got.Preferences.ExcludeCategories[0] != "food" {
		t.Fatalf("unexpected exclusions: %v", got.Preferences.ExcludeCategories)
	}

	if len(fx.log.logs) != 1 || !fx.log.logs[0].Success || fx.log.logs[0].Source != shopping.SourceAI {
		t.Fatalf("unexpected request log: %+v", fx.log.logs)
	}
	if fx.log.logs[0].Provider != providerKeyword || fx.log.logs[0].ErrorMessage != nil {
		t.Fatalf("unexpected provider or error: %+v", fx.log.logs[0])
	}

	if len(fx.publisher.events) != 1 || fx.publisher.events[0].UserID != userID {
		t.Fatalf("unexpected published events: %+v", fx.publisher.events)
	}

	select {
	case event := <-stream:
		if event.Type != notifications.EventListGenerated {
			t.Fatalf("unexpected event type %s", event.Type)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected SSE event")
	}
}

// TestToShoppingRequestLowercasesExclusions проверяет, что исключения в любом регистре удаляют категории позиций.
func TestToShoppingRequestLowercasesExclusions(t *testing.T) {
	request, err := toShoppingRequest(GenerateListRequest{
		Prompt:      "picnic",
		Preferences: &PreferencesRequest{ExcludeCategories: []string{"Food", " DRINKS "}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(request.Preferences.ExcludeCategories) != 2 || request.Preferences.ExcludeCategories[0] != "food" || request.Preferences.ExcludeCategories[1] != "drinks" {
		t.Fatalf("unexpected exclusions: %v", request.Preferences.ExcludeCategories)
	}

	items := []shopping.MatchedItem{
		{SuggestedItem: shopping.SuggestedItem{Name: "sandwich", Category: "food", Quantity: 1}},
		{SuggestedItem: shopping.SuggestedItem{Name: "blanket", Category: "outdoor", Quantity: 1}},
	}
	survivors := shopping.ExcludeCategories(items, request.Preferences.ExcludeCategories)
	if len(survivors) != 1 || survivors[0].Name != "blanket" {
		t.Fatalf("expected only blanket to remain, got %+v", survivors)
	}
}

// TestGenerateRejectsInvalidInput проверяет ошибки валидации запроса.
func TestGenerateRejectsInvalidInput(t *testing.T) {
	userID := uuid.New()
	cases := map[string]string{
		"blank prompt":  `{"prompt":"   "}`,
		"long prompt":   `{"prompt":"` + strings.Repeat("a", 501) + `"}`,
		"zero budget":   `{"prompt":"party","preferences":{"max_budget":0}}`,
		"bad payload":   `{"prompt":`,
		"missing field": `{}`,
	}

	for name, body := range cases {
		fx := newShoppingFixture()
		rec := serve(t, fx.handler.Generate, &userID, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
		if fx.generator.calls != 0 {
			t.Fatalf("%s: generator must not be called", name)
		}
	}
}

// TestGenerateCatalogUnavailable проверяет ответ 503 и запись ошибки в журнал.
func TestGenerateCatalogUnavailable(t *testing.T) {
	fx := newShoppingFixture()
	fx.generator.err = fmt.Errorf("%w: connection refused", shopping.ErrCatalogUnavailable)
	userID := uuid.New()

	rec := serve(t, fx.handler.Generate, &userID, `{"prompt":"beach day"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	if len(fx.log.logs) != 1 || fx.log.logs[0].Success || fx.log.logs[0].ErrorMessage == nil {
		t.Fatalf("expected failed request log, got %+v", fx.log.logs)
	}
	if len(fx.publisher.events) != 0 {
		t.Fatal("expected no events on failure")
	}
}

// TestGenerateInternalError проверяет ответ 500 для прочих ошибок.
func TestGenerateInternalError(t *testing.T) {
	fx := newShoppingFixture()
	fx.generator.err = errors.New("boom")
	userID := uuid.New()

	rec := serve(t, fx.handler.Generate, &userID, `{"prompt":"beach day"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

// TestGenerateRequiresUser проверяет отказ без пользователя в контексте.
func TestGenerateRequiresUser(t *testing.T) {
	fx := newShoppingFixture()

	rec := serve(t, fx.handler.Generate, nil, `{"prompt":"beach day"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

// TestGenerateIgnoresPublishFailure проверяет, что ошибка Kafka не ломает ответ.
func TestGenerateIgnoresPublishFailure(t *testing.T) {
	fx := newShoppingFixture()
	fx.publisher.err = errors.New("broker down")
	userID := uuid.New()

	rec := serve(t, fx.handler.Generate, &userID, `{"prompt":"beach day"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

// TestExportCSV проверяет выгрузку списка в CSV.
func TestExportCSV(t *testing.T) {
	fx := newShoppingFixture()
	userID := uuid.New()

	rec := serve(t, fx.handler.ExportCSV, &userID, `{"prompt":"camping trip"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv") {
		t.Fatalf("unexpected content type %s", rec.Header().Get(echo.HeaderContentType))
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderContentDisposition), "shopping-list-20240501-120000.csv") {
		t.Fatalf("unexpected disposition %s", rec.Header().Get(echo.HeaderContentDisposition))
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("expected valid csv, got %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header, 2 items and total, got %d rows", len(records))
	}
	if records[1][1] != "tent" || records[1][6] != "129.99" || records[1][7] != "3" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[2][1] != "lantern, led" || records[2][7] != "" {
		t.Fatalf("unexpected second row: %v", records[2])
	}
	if records[3][1] != "total" || records[3][6] != "159.99" {
		t.Fatalf("unexpected total row: %v", records[3])
	}
}
