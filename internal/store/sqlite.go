package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"adpulse/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore implements Store on a single SQLite file. WAL mode allows
// concurrent reads while one writer appends records.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at path and applies the schema.
// Idempotent — safe to call against an existing database. Use ":memory:" for
// an ephemeral store in tests.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRecord appends one pipeline record.
func (s *SQLiteStore) CreateRecord(ctx context.Context, rec *model.PipelineRecord) error {
	reasons, err := json.Marshal(rec.ScoreReasons)
	if err != nil {
		return fmt.Errorf("create record: marshal reasons: %w", err)
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records
		(id, start_sec, end_sec, event_type, intensity, confidence,
		 crowd_reaction, summary, score, score_reasons, generate_ad, urgency,
		 decision_reason, discard_kind, raw_response, perception_latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.StartSec,
		rec.EndSec,
		string(rec.EventType),
		string(rec.Intensity),
		rec.Confidence,
		rec.CrowdReaction,
		rec.Summary,
		rec.Score,
		string(reasons),
		rec.GenerateAd,
		string(rec.Urgency),
		rec.DecisionReason,
		string(rec.DiscardKind),
		rec.RawResponse,
		rec.PerceptionLatencyMS,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}

	return nil
}

// AttachAd attaches ad content to an existing record.
func (s *SQLiteStore) AttachAd(ctx context.Context, ad *model.AdContent) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM records WHERE id = ?`, ad.RecordID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("attach ad: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("attach ad: %w", ErrRecordNotFound)
	}

	hashtags, err := json.Marshal(ad.Hashtags)
	if err != nil {
		return fmt.Errorf("attach ad: marshal hashtags: %w", err)
	}

	if ad.CreatedAt.IsZero() {
		ad.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ads
		(id, record_id, ad_copy, promo_suggestion, hashtags, urgency,
		 business_name, business_type, creative_latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ad.ID,
		ad.RecordID,
		ad.AdCopy,
		ad.PromoSuggestion,
		string(hashtags),
		string(ad.Urgency),
		ad.BusinessName,
		ad.BusinessType,
		ad.CreativeLatencyMS,
		ad.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("attach ad: %w", err)
	}

	return nil
}

// ListRecords returns all records ordered by segment start time.
func (s *SQLiteStore) ListRecords(ctx context.Context) ([]model.PipelineRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_sec, end_sec, event_type, intensity, confidence,
		       crowd_reaction, summary, score, score_reasons, generate_ad,
		       urgency, decision_reason, discard_kind, raw_response,
		       perception_latency_ms, created_at
		FROM records
		ORDER BY start_sec, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []model.PipelineRecord
	for rows.Next() {
		var (
			rec          model.PipelineRecord
			eventType    string
			intensity    string
			urgency      string
			discardKind  string
			scoreReasons sql.NullString
			crowd        sql.NullString
			summary      sql.NullString
			decision     sql.NullString
			raw          sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.StartSec, &rec.EndSec, &eventType, &intensity,
			&rec.Confidence, &crowd, &summary, &rec.Score, &scoreReasons,
			&rec.GenerateAd, &urgency, &decision, &discardKind, &raw,
			&rec.PerceptionLatencyMS, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list records: scan: %w", err)
		}

		rec.EventType = model.EventType(eventType)
		rec.Intensity = model.Intensity(intensity)
		rec.Urgency = model.Urgency(urgency)
		rec.DiscardKind = model.DiscardKind(discardKind)
		rec.CrowdReaction = crowd.String
		rec.Summary = summary.String
		rec.DecisionReason = decision.String
		rec.RawResponse = raw.String
		if scoreReasons.Valid && scoreReasons.String != "" {
			if err := json.Unmarshal([]byte(scoreReasons.String), &rec.ScoreReasons); err != nil {
				return nil, fmt.Errorf("list records: unmarshal reasons: %w", err)
			}
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// ListAds returns all ad attachments ordered by creation time.
func (s *SQLiteStore) ListAds(ctx context.Context) ([]model.AdContent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, ad_copy, promo_suggestion, hashtags, urgency,
		       business_name, business_type, creative_latency_ms, created_at
		FROM ads
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list ads: %w", err)
	}
	defer rows.Close()

	var ads []model.AdContent
	for rows.Next() {
		var (
			ad       model.AdContent
			urgency  string
			promo    sql.NullString
			hashtags sql.NullString
			bizName  sql.NullString
			bizType  sql.NullString
		)
		if err := rows.Scan(
			&ad.ID, &ad.RecordID, &ad.AdCopy, &promo, &hashtags, &urgency,
			&bizName, &bizType, &ad.CreativeLatencyMS, &ad.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list ads: scan: %w", err)
		}

		ad.Urgency = model.Urgency(urgency)
		ad.PromoSuggestion = promo.String
		ad.BusinessName = bizName.String
		ad.BusinessType = bizType.String
		if hashtags.Valid && hashtags.String != "" {
			if err := json.Unmarshal([]byte(hashtags.String), &ad.Hashtags); err != nil {
				return nil, fmt.Errorf("list ads: unmarshal hashtags: %w", err)
			}
		}

		ads = append(ads, ad)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ads: %w", err)
	}
	return ads, nil
}

// Stats aggregates the audit trail for the metrics endpoint.
func (s *SQLiteStore) Stats(ctx context.Context) (model.PipelineStats, error) {
	var stats model.PipelineStats

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1),
		       COALESCE(SUM(CASE WHEN discard_kind != '' THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(perception_latency_ms), 0)
		FROM records
	`).Scan(&stats.TotalSegments, &stats.SegmentsDiscarded, &stats.AvgPerceptionLatency)
	if err != nil {
		return stats, fmt.Errorf("stats: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(1), COALESCE(AVG(creative_latency_ms), 0) FROM ads
	`).Scan(&stats.AdsGenerated, &stats.AvgCreativeLatency)
	if err != nil {
		return stats, fmt.Errorf("stats: %w", err)
	}

	if stats.TotalSegments > 0 {
		stats.DiscardRate = float64(stats.SegmentsDiscarded) / float64(stats.TotalSegments)
	}

	return stats, nil
}

// Reset deletes all records and ads.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	// Ads first: foreign key references records.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ads`); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
