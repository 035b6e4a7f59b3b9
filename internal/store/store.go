package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"document-gpt/internal/config"
	"document-gpt/internal/models"
)

// Message is one persisted exchange for a messaging-channel user.
type Message struct {
	Query     string `json:"query"`
	Response  string `json:"response"`
	CreatedAt string `json:"createdAt"`
}

// User is a messaging-channel correspondent, keyed by sender id. Users
// are created on their first inbound message and never deleted.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	SenderID     string    `bun:"sender_id,notnull,unique"`
	UserName     string    `bun:"user_name"`
	Messages     []Message `bun:"messages,type:jsonb"`
	MessageCount int       `bun:"message_count,notnull"`
	Mobile       string    `bun:"mobile"`
	Channel      string    `bun:"channel"`
	IsPaid       bool      `bun:"is_paid"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn(cfg)), pgdriver.WithPassword(cfg.Key))), nil
}

// dsn appends the configured sslmode to the URL, respecting query
// parameters the URL already carries. An empty ssl_mode leaves the URL
// untouched so the driver default (or the URL's own sslmode) applies.
func dsn(cfg *config.DatabaseConfig) string {
	if cfg.SSLMode == "" {
		return cfg.URL
	}
	sep := "?"
	if strings.Contains(cfg.URL, "?") {
		sep = "&"
	}
	return cfg.URL + sep + "sslmode=" + cfg.SSLMode
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*User)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Users is the persistence layer for webhook conversations.
type Users struct {
	db *bun.DB
}

func NewUsers(db *bun.DB) *Users {
	return &Users{db: db}
}

// Get returns the user for a sender id, or nil when none exists.
func (r *Users) Get(ctx context.Context, senderID string) (*User, error) {
	var user User
	err := r.db.NewSelect().Model(&user).Where("sender_id = ?", senderID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}

func (r *Users) Create(ctx context.Context, user *User) error {
	if _, err := r.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// AppendMessage adds one exchange to the user's history and bumps the
// message count past currentCount. Callers serialize per sender, so the
// read-modify-write here sees the latest state.
func (r *Users) AppendMessage(ctx context.Context, senderID, query, response string, currentCount int) error {
	user, err := r.Get(ctx, senderID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("unknown sender %q", senderID)
	}

	user.Messages = append(user.Messages, Message{
		Query:     query,
		Response:  response,
		CreatedAt: time.Now().Format(models.MessageTimeLayout),
	})
	user.MessageCount = currentCount + 1

	_, err = r.db.NewUpdate().
		Model(user).
		Column("messages", "message_count").
		Where("sender_id = ?", senderID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("updating messages: %w", err)
	}
	return nil
}
