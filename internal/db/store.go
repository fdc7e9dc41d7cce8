package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/regiondesk/backend/internal/models"
)

// ErrConversationClosed marks a lifecycle transition on a conversation
// that has already ended.
var ErrConversationClosed = errors.New("conversation is closed")

// ErrAlreadyHuman marks a second transfer attempt; the ai to human
// transition happens at most once.
var ErrAlreadyHuman = errors.New("conversation already transferred to human")

// Store holds the front end's own records: chat conversations. Tickets
// live in the ticketing backend and are never persisted here.
type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

const conversationColumns = `id, customer_id, customer_email, region, mode, status, staff_id, staff_name, transferred_at, created_at, updated_at`

func (s *Store) CreateConversation(ctx context.Context, c models.Conversation) (models.Conversation, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO conversations (id, customer_id, customer_email, region, mode, status, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)`,
		c.ID, c.CustomerID, c.CustomerEmail, c.Region, c.Mode, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return models.Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	return scanConversation(row)
}

// ListConversations returns conversations newest first. A non-empty
// customerEmail restricts the result to that customer's records.
func (s *Store) ListConversations(ctx context.Context, customerEmail string, limit, offset int) ([]models.Conversation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE ($1 = '' OR customer_email = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		customerEmail, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TransferToHuman performs the one-way ai to human handoff. The
// conversation moves to waiting until a staff member picks it up.
func (s *Store) TransferToHuman(ctx context.Context, id string) (models.Conversation, error) {
	current, err := s.GetConversation(ctx, id)
	if err != nil {
		return models.Conversation{}, err
	}
	if current.Status == models.StatusClosed {
		return models.Conversation{}, ErrConversationClosed
	}
	if current.Mode == models.ModeHuman {
		return models.Conversation{}, ErrAlreadyHuman
	}
	now := time.Now().UTC()
	_, err = s.Pool.Exec(ctx,
		`UPDATE conversations SET mode = $2, status = $3, transferred_at = $4, updated_at = $4 WHERE id = $1`,
		id, models.ModeHuman, models.StatusWaiting, now)
	if err != nil {
		return models.Conversation{}, fmt.Errorf("transfer conversation: %w", err)
	}
	return s.GetConversation(ctx, id)
}

// AssignStaff attaches a staff member to a transferred conversation and
// makes it active again.
func (s *Store) AssignStaff(ctx context.Context, id string, staffID int, staffName string) (models.Conversation, error) {
	now := time.Now().UTC()
	tag, err := s.Pool.Exec(ctx,
		`UPDATE conversations SET staff_id = $2, staff_name = $3, status = $4, updated_at = $5
		 WHERE id = $1 AND status <> $6`,
		id, staffID, staffName, models.StatusActive, now, models.StatusClosed)
	if err != nil {
		return models.Conversation{}, fmt.Errorf("assign staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Conversation{}, ErrConversationClosed
	}
	return s.GetConversation(ctx, id)
}

func (s *Store) CloseConversation(ctx context.Context, id string) (models.Conversation, error) {
	now := time.Now().UTC()
	_, err := s.Pool.Exec(ctx,
		`UPDATE conversations SET status = $2, updated_at = $3 WHERE id = $1`,
		id, models.StatusClosed, now)
	if err != nil {
		return models.Conversation{}, fmt.Errorf("close conversation: %w", err)
	}
	return s.GetConversation(ctx, id)
}

func scanConversation(row pgx.Row) (models.Conversation, error) {
	var c models.Conversation
	var regionVal, staffName *string
	err := row.Scan(&c.ID, &c.CustomerID, &c.CustomerEmail, &regionVal, &c.Mode, &c.Status,
		&c.StaffID, &staffName, &c.TransferredAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Conversation{}, err
	}
	if regionVal != nil {
		c.Region = *regionVal
	}
	if staffName != nil {
		c.StaffName = *staffName
	}
	return c, nil
}
