package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/capitals/internal/model"
	"github.com/roach88/capitals/internal/persistence"
)

// ReadCountries returns every committed country with its capital linked,
// ordered by id. Countries without a capital have a nil Capital.
//
// Must not be called while a Context on this store has an open
// transaction: the store holds a single connection.
func (s *Store) ReadCountries(ctx context.Context) ([]*model.Country, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT co.id, co.name, ca.id, ca.name
		FROM Country co
		LEFT JOIN Capital ca ON ca.country_id = co.id
		ORDER BY co.id ASC
	`)
	if err != nil {
		return nil, persistence.NewConnectionError("read countries", s.unit.Name, fmt.Errorf("query countries: %w", err))
	}
	defer rows.Close()

	countries := []*model.Country{}
	for rows.Next() {
		country, err := scanCountry(rows)
		if err != nil {
			return nil, persistence.NewConnectionError("read countries", s.unit.Name, err)
		}
		countries = append(countries, country)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewConnectionError("read countries", s.unit.Name, fmt.Errorf("iterate countries: %w", err))
	}
	return countries, nil
}

func scanCountry(rows *sql.Rows) (*model.Country, error) {
	var (
		country     model.Country
		capitalID   sql.NullInt64
		capitalName sql.NullString
	)
	if err := rows.Scan(&country.ID, &country.Name, &capitalID, &capitalName); err != nil {
		return nil, fmt.Errorf("scan country: %w", err)
	}

	if capitalID.Valid {
		capital := &model.Capital{ID: uint(capitalID.Int64), Name: capitalName.String}
		model.Associate(&country, capital)
	}
	return &country, nil
}

// ReadLog returns the transaction log, oldest commit first.
func (s *Store) ReadLog(ctx context.Context) ([]LogEntry, error) {
	entries := []LogEntry{}
	if err := s.orm.WithContext(ctx).Order("seq ASC").Find(&entries).Error; err != nil {
		return nil, persistence.NewConnectionError("read log", s.unit.Name, fmt.Errorf("query transaction log: %w", err))
	}
	return entries, nil
}
