package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"

	"careermatch/internal/errors"
	"careermatch/internal/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresStore keeps profiles in the profiles table.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) LoadAll(ctx context.Context) ([]types.Profile, error) {
	const query = `
SELECT name, technical_skills, behavioral_skills, notes
FROM profiles
ORDER BY seq`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to query profiles", err)
	}
	defer rows.Close()

	profiles := []types.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to read profiles", err)
	}
	return profiles, nil
}

func (s *PostgresStore) Find(ctx context.Context, name string) (types.Profile, error) {
	const query = `
SELECT name, technical_skills, behavioral_skills, notes
FROM profiles
WHERE lower(name) = $1
ORDER BY seq
LIMIT 1`
	key := types.NameKey(name)
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, key))
	if stderrors.Is(err, sql.ErrNoRows) {
		_, notFound := findIn(nil, name)
		return types.Profile{}, notFound
	}
	return p, err
}

func (s *PostgresStore) Append(ctx context.Context, profile types.Profile) error {
	p, err := prepare(profile)
	if err != nil {
		return err
	}
	technical, err := json.Marshal(p.Technical)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStoreFailed, "failed to encode technical skills", err)
	}
	behavioral, err := json.Marshal(p.Behavioral)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStoreFailed, "failed to encode behavioral skills", err)
	}

	const query = `
INSERT INTO profiles (id, name, technical_skills, behavioral_skills, notes)
VALUES ($1, $2, $3, $4, $5)`
	_, err = s.DB.ExecContext(ctx, query,
		uuid.NewString(),
		p.Name,
		string(technical),
		string(behavioral),
		p.Notes,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return duplicateError(p.Name)
		}
		return errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to insert profile", err).
			WithContext("profile", p.Name)
	}
	return nil
}

// Stats reports connection pool usage.
func (s *PostgresStore) Stats() sql.DBStats {
	return s.DB.Stats()
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (types.Profile, error) {
	var p types.Profile
	var technical, behavioral []byte
	if err := row.Scan(&p.Name, &technical, &behavioral, &p.Notes); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return types.Profile{}, err
		}
		return types.Profile{}, errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to scan profile", err)
	}
	if err := decodeSkills(technical, &p.Technical); err != nil {
		return types.Profile{}, err
	}
	if err := decodeSkills(behavioral, &p.Behavioral); err != nil {
		return types.Profile{}, err
	}
	return p, nil
}

func decodeSkills(raw []byte, dst *map[string]int) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		*dst = map[string]int{}
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailed, "stored skills are not valid JSON", err)
	}
	return nil
}
