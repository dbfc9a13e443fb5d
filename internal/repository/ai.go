package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/shopping-planner/backend/internal/models"
)

const (
	aiRequestColumns        = "id, user_id, request_type, provider, model, source, success, error_message, created_at"
	aiRequestPayloadColumns = "id, user_id, request_type, provider, model, source, prompt, request_payload, response_payload, raw_response, success, error_message, created_at"
	RequestTypeShoppingList = "shopping_list"
)

type AIRepository struct {
	db *pgxpool.Pool
}

type AIRequestLog struct {
	UserID          uuid.UUID
	RequestType     string
	Provider        string
	Model           string
	Source          string
	Prompt          string
	RequestPayload  []byte
	ResponsePayload []byte
	RawResponse     string
	Success         bool
	ErrorMessage    *string
}

type AIRequestFilter struct {
	UserID  *uuid.UUID
	Success *bool
	Source  *string
}

type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

type UsageStats struct {
	Users            int          `json:"users"`
	Products         int          `json:"products"`
	ActiveProducts   int          `json:"active_products"`
	Generations      int          `json:"generations"`
	AISuccess        int          `json:"ai_success"`
	KeywordFallbacks int          `json:"keyword_fallbacks"`
	Failures         int          `json:"failures"`
	GenerationsByDay []DailyCount `json:"generations_by_day"`
}

// NewAIRepository создает репозиторий для журнала генераций.
func NewAIRepository(db *pgxpool.Pool) *AIRepository {
	return &AIRepository{db: db}
}

// LogRequest сохраняет запись о генерации списка.
func (r *AIRepository) LogRequest(ctx context.Context, log AIRequestLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ai_requests
		 (user_id, request_type, provider, model, source, prompt, request_payload, response_payload, raw_response, success, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::jsonb, NULLIF($8, '')::jsonb, NULLIF($9, ''), $10, $11)`,
		log.UserID,
		log.RequestType,
		log.Provider,
		log.Model,
		log.Source,
		log.Prompt,
		string(log.RequestPayload),
		string(log.ResponsePayload),
		log.RawResponse,
		log.Success,
		log.ErrorMessage,
	)
	return err
}

// ListRequests возвращает журнал генераций с фильтрацией.
func (r *AIRepository) ListRequests(ctx context.Context, filter AIRequestFilter, limit, offset int, includePayloads bool) ([]models.AIRequest, error) {
	where, args := buildAIRequestWhere(filter)

	columns := aiRequestColumns
	if includePayloads {
		columns = aiRequestPayloadColumns
	}

	query := fmt.Sprintf("SELECT %s FROM ai_requests%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d", columns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.AIRequest, 0)
	for rows.Next() {
		var record models.AIRequest
		dest := []interface{}{&record.ID, &record.UserID, &record.RequestType, &record.Provider, &record.Model, &record.Source}
		if includePayloads {
			dest = append(dest, &record.Prompt, &record.RequestPayload, &record.ResponsePayload, &record.RawResponse)
		}
		dest = append(dest, &record.Success, &record.ErrorMessage, &record.CreatedAt)

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		requests = append(requests, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

// CountRequests возвращает количество записей журнала по фильтру.
func (r *AIRepository) CountRequests(ctx context.Context, filter AIRequestFilter) (int, error) {
	where, args := buildAIRequestWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM ai_requests"+where, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UsageStats возвращает агрегированную статистику генераций за N дней.
func (r *AIRepository) UsageStats(ctx context.Context, days int) (UsageStats, error) {
	stats := UsageStats{}
	if days <= 0 {
		return stats, ErrInvalid
	}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.Users); err != nil {
		return stats, err
	}

	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM products`,
	).Scan(&stats.Products, &stats.ActiveProducts); err != nil {
		return stats, err
	}

	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE success AND source = 'ai'),
		        COUNT(*) FILTER (WHERE success AND source = 'keyword'),
		        COUNT(*) FILTER (WHERE NOT success)
		 FROM ai_requests`,
	).Scan(&stats.Generations, &stats.AISuccess, &stats.KeywordFallbacks, &stats.Failures); err != nil {
		return stats, err
	}

	start := usageWindowStart(time.Now(), days)
	rows, err := r.db.Query(ctx,
		`SELECT date_trunc('day', created_at)::date AS day,
		        COUNT(*)
		 FROM ai_requests
		 WHERE created_at >= $1
		 GROUP BY day
		 ORDER BY day DESC`,
		start,
	)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	stats.GenerationsByDay = make([]DailyCount, 0)
	for rows.Next() {
		var row DailyCount
		if err := rows.Scan(&row.Day, &row.Count); err != nil {
			return stats, err
		}
		stats.GenerationsByDay = append(stats.GenerationsByDay, row)
	}

	return stats, rows.Err()
}

// usageWindowStart возвращает полночь UTC первого дня окна из days дней, включая текущий.
func usageWindowStart(now time.Time, days int) time.Time {
	year, month, day := now.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -days+1)
}

func buildAIRequestWhere(filter AIRequestFilter) (string, []interface{}) {
	clauses := make([]string, 0)
	args := make([]interface{}, 0)

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}

	if filter.Success != nil {
		args = append(args, *filter.Success)
		clauses = append(clauses, fmt.Sprintf("success = $%d", len(args)))
	}

	if filter.Source != nil {
		args = append(args, *filter.Source)
		clauses = append(clauses, fmt.Sprintf("source = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}
