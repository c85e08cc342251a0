package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

// TranscriptService persists chat agent exchanges.
type TranscriptService struct {
	db *sqlx.DB
}

// NewTranscriptService creates a new transcript service
func NewTranscriptService(db *sqlx.DB) *TranscriptService {
	return &TranscriptService{db: db}
}

// agentExchangeRow is the table shape; tools_invoked is stored as a JSON
// array in a text column.
type agentExchangeRow struct {
	ID           string    `db:"id"`
	UserMessage  string    `db:"user_message"`
	Reply        string    `db:"reply"`
	ToolsInvoked []byte    `db:"tools_invoked"`
	Iterations   int       `db:"iterations"`
	CreatedAt    time.Time `db:"created_at"`
}

// Record stores one finished exchange
func (t *TranscriptService) Record(ctx context.Context, exchange *entities.AgentExchange) error {
	if t.db == nil {
		return apperrors.NewInternalError("database connection not available", nil)
	}

	tools, err := json.Marshal(exchange.ToolsInvoked)
	if err != nil {
		return apperrors.NewInternalError("failed to encode invoked tools", err)
	}

	query := `
		INSERT INTO agent_exchanges (id, user_message, reply, tools_invoked, iterations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = t.db.ExecContext(ctx, query,
		exchange.ID, exchange.UserMessage, exchange.Reply, tools,
		exchange.Iterations, exchange.CreatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to record exchange", err)
	}
	return nil
}

// GetByID retrieves one exchange
func (t *TranscriptService) GetByID(ctx context.Context, id string) (*entities.AgentExchange, error) {
	if t.db == nil {
		return nil, apperrors.NewInternalError("database connection not available", nil)
	}

	var row agentExchangeRow
	query := `SELECT id, user_message, reply, tools_invoked, iterations, created_at FROM agent_exchanges WHERE id = $1`
	if err := t.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("exchange with id %s not found", id))
		}
		return nil, apperrors.NewInternalError("failed to get exchange", err)
	}
	return exchangeFromRow(&row)
}

// ListRecent returns the newest exchanges, most recent first
func (t *TranscriptService) ListRecent(ctx context.Context, limit int) ([]*entities.AgentExchange, error) {
	if t.db == nil {
		return nil, apperrors.NewInternalError("database connection not available", nil)
	}
	if limit <= 0 {
		limit = 20
	}

	var rows []agentExchangeRow
	query := `SELECT id, user_message, reply, tools_invoked, iterations, created_at FROM agent_exchanges ORDER BY created_at DESC LIMIT $1`
	if err := t.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, apperrors.NewInternalError("failed to list exchanges", err)
	}

	exchanges := make([]*entities.AgentExchange, 0, len(rows))
	for i := range rows {
		exchange, err := exchangeFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		exchanges = append(exchanges, exchange)
	}
	return exchanges, nil
}

func exchangeFromRow(row *agentExchangeRow) (*entities.AgentExchange, error) {
	exchange := &entities.AgentExchange{
		ID:          row.ID,
		UserMessage: row.UserMessage,
		Reply:       row.Reply,
		Iterations:  row.Iterations,
		CreatedAt:   row.CreatedAt,
	}
	if len(row.ToolsInvoked) > 0 {
		if err := json.Unmarshal(row.ToolsInvoked, &exchange.ToolsInvoked); err != nil {
			return nil, apperrors.NewInternalError("failed to decode invoked tools", err)
		}
	}
	return exchange, nil
}
