package database

import (
	"context"
	"fmt"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/config"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messagesTable = "collected_messages"

// The archive is append-only: the same message collected by overlapping
// cycles is stored once per cycle.
const schema = `CREATE TABLE IF NOT EXISTS collected_messages (
	cycle_id     uuid        NOT NULL,
	label        text        NOT NULL,
	collected_at timestamptz NOT NULL,
	channel      text        NOT NULL,
	message_id   bigint      NOT NULL,
	posted_at    timestamptz NOT NULL,
	text         text        NOT NULL,
	has_media    boolean     NOT NULL,
	keywords     text[]      NOT NULL DEFAULT '{}'
)`

var messageColumns = []string{
	"cycle_id", "label", "collected_at", "channel", "message_id", "posted_at", "text", "has_media", "keywords",
}

// conn is the part of pgxpool.Pool the archive writes through.
type conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

type Database struct {
	Pool   *pgxpool.Pool
	db     conn
	log    pkg.Logger
	tagger contracts.KeywordTagger
	newID  func() uuid.UUID
}

func NewPostgresPool(ctx context.Context, log pkg.Logger, cfg config.DatabaseConfig, tagger contracts.KeywordTagger) (*Database, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	d := newDatabase(pool, log, tagger)
	d.Pool = pool
	return d, nil
}

func newDatabase(db conn, log pkg.Logger, tagger contracts.KeywordTagger) *Database {
	return &Database{db: db, log: log, tagger: tagger, newID: uuid.New}
}

func (d *Database) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create %s: %w", messagesTable, err)
	}
	return nil
}

// SaveCycle appends the messages of one cycle, tagged with keywords, under
// a fresh cycle id.
func (d *Database) SaveCycle(ctx context.Context, label string, res model.CycleResult) error {
	if len(res.Messages) == 0 {
		d.log.Info("No posts to save", "label", label)
		return nil
	}

	var tags [][]string
	if d.tagger != nil {
		tags = d.tagger.Tag(ctx, res.Messages)
	}

	cycleID := d.newID()
	rows := make([][]any, 0, len(res.Messages))
	for i, m := range res.Messages {
		keywords := []string{}
		if i < len(tags) && tags[i] != nil {
			keywords = tags[i]
		}
		rows = append(rows, []any{
			cycleID,
			label,
			res.Started,
			m.Channel,
			m.ID,
			m.Date,
			m.Text,
			m.HasMedia,
			keywords,
		})
	}

	n, err := d.db.CopyFrom(ctx, pgx.Identifier{messagesTable}, messageColumns, pgx.CopyFromRows(rows))
	if err != nil {
		d.log.Error("CopyFrom failed", "err", err)
		return fmt.Errorf("archive cycle %s: %w", cycleID, err)
	}

	d.log.Info("Saved posts to database", "count", n, "label", label, "cycle_id", cycleID.String())
	return nil
}

func (d *Database) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
}
