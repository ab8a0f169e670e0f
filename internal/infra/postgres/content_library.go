package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"otaku-arena-service/internal/domain"
)

// ContentLibrary loads curated content JSONB from Postgres: the fallback quiz
// sets and the shop offer catalog. When no database is configured the service
// runs on the compiled-in static content instead.
type ContentLibrary struct {
	pool *pgxpool.Pool
}

func NewContentLibrary(pool *pgxpool.Pool) *ContentLibrary {
	return &ContentLibrary{pool: pool}
}

// FallbackQuizzes returns the curated quiz set, ordered by ID.
func (l *ContentLibrary) FallbackQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM seed_quizzes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load seed quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan seed quiz: %w", err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return nil, fmt.Errorf("unmarshal seed quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

// Offers returns the shop catalog, ordered by ID.
func (l *ContentLibrary) Offers(ctx context.Context) ([]domain.ShopOffer, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM shop_offers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load shop offers: %w", err)
	}
	defer rows.Close()

	var offers []domain.ShopOffer
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan shop offer: %w", err)
		}
		var offer domain.ShopOffer
		if err := json.Unmarshal(raw, &offer); err != nil {
			return nil, fmt.Errorf("unmarshal shop offer: %w", err)
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

// SeedOffers upserts the static catalog so a fresh database serves the same
// storefront as a database-less deployment.
func (l *ContentLibrary) SeedOffers(ctx context.Context, offers []domain.ShopOffer) error {
	for _, offer := range offers {
		raw, err := json.Marshal(offer)
		if err != nil {
			return fmt.Errorf("marshal offer %s: %w", offer.ID, err)
		}
		_, err = l.pool.Exec(ctx,
			`INSERT INTO shop_offers (id, data) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
			offer.ID, raw)
		if err != nil {
			return fmt.Errorf("upsert offer %s: %w", offer.ID, err)
		}
	}
	return nil
}

// SeedQuizzes upserts the curated quiz set.
func (l *ContentLibrary) SeedQuizzes(ctx context.Context, quizzes []domain.Quiz) error {
	for _, quiz := range quizzes {
		raw, err := json.Marshal(quiz)
		if err != nil {
			return fmt.Errorf("marshal quiz %s: %w", quiz.ID, err)
		}
		_, err = l.pool.Exec(ctx,
			`INSERT INTO seed_quizzes (id, data) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
			quiz.ID, raw)
		if err != nil {
			return fmt.Errorf("upsert quiz %s: %w", quiz.ID, err)
		}
	}
	return nil
}
