// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache persists geocoding results in DuckDB, keyed by the
// normalized query text. Points are stored both as spatial POINT_2D
// geometry and as H3 cells at resolutions 1-8, so the same file can be
// queried for coverage analysis without re-deriving the index.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/jcodagnone/geomux/geocode"
	"github.com/jcodagnone/geomux/spatial"
)

// Entry is one cached geocoding decision: the best candidate an upstream
// service returned for a query.
type Entry struct {
	Query     string            `json:"query"`
	Candidate geocode.Candidate `json:"candidate"`
	CreatedAt time.Time         `json:"created_at"`

	h3Cells [8]int64
}

func (e *Entry) computeH3() error {
	point := e.Candidate.Point()
	latLng := h3.NewLatLng(point.Lat, point.Lng)

	for res := 1; res <= 8; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return fmt.Errorf("converting to h3 cell at res %d: %w", res, err)
		}

		e.h3Cells[res-1] = int64(cell)
	}

	return nil
}

// Key folds a query into its cache key: the accent-stripped, lowercased
// single-line form. Two spellings of the same address share an entry.
func Key(q geocode.Query) string {
	folded, _ := geocode.NormalizeASCII{Lower: true}.Process(geocode.NewQuery(q.SingleLine()))

	return folded.Query
}

// Repository handles persistence of cached geocoding results.
type Repository interface {
	// CreateSchema creates the results table and loads the spatial extension.
	CreateSchema() error

	// Get returns the entry for a cache key, or nil when absent.
	Get(key string) (*Entry, error)

	// Save inserts or replaces the entry for its query key.
	Save(entry *Entry) error

	// BulkInsert inserts entries in one transaction.
	BulkInsert(entries []*Entry) error

	// Count returns the number of cached entries.
	Count() (int, error)
}

type sqlRepository struct {
	db *sql.DB
}

// NewRepository creates a DuckDB-backed result repository.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE TABLE IF NOT EXISTS geocode_results (
			query VARCHAR PRIMARY KEY,
			match_addr VARCHAR NOT NULL,
			point POINT_2D NOT NULL,
			wkid INTEGER NOT NULL,
			score DOUBLE NOT NULL,
			locator VARCHAR,
			locator_type VARCHAR,
			entity VARCHAR,
			service VARCHAR NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res1 UBIGINT,
			h3_res2 UBIGINT,
			h3_res3 UBIGINT,
			h3_res4 UBIGINT,
			h3_res5 UBIGINT,
			h3_res6 UBIGINT,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT
		);
	`)

	return err
}

func (r *sqlRepository) Get(key string) (*Entry, error) {
	entry := &Entry{}
	point := &spatial.Point{}

	err := r.db.QueryRow(`
		SELECT query, match_addr, point, wkid, score,
		       locator, locator_type, entity, service, created_at
		FROM geocode_results
		WHERE query = ?
	`, key).Scan(
		&entry.Query,
		&entry.Candidate.MatchAddr,
		point,
		&entry.Candidate.WKID,
		&entry.Candidate.Score,
		&entry.Candidate.Locator,
		&entry.Candidate.LocatorType,
		&entry.Candidate.Entity,
		&entry.Candidate.Service,
		&entry.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	entry.Candidate.X = point.Lng
	entry.Candidate.Y = point.Lat

	return entry, nil
}

func (r *sqlRepository) Save(entry *Entry) error {
	if err := entry.computeH3(); err != nil {
		return err
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO geocode_results(
			query, match_addr, point, wkid, score,
			locator, locator_type, entity, service, created_at,
			h3_res1, h3_res2, h3_res3, h3_res4,
			h3_res5, h3_res6, h3_res7, h3_res8
		)
		VALUES (?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, saveArgs(entry)...)

	return err
}

func (r *sqlRepository) BulkInsert(entries []*Entry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO geocode_results(
			query, match_addr, point, wkid, score,
			locator, locator_type, entity, service, created_at,
			h3_res1, h3_res2, h3_res3, h3_res4,
			h3_res5, h3_res6, h3_res7, h3_res8
		)
		VALUES (?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	for _, entry := range entries {
		if err := entry.computeH3(); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}

		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}

		if _, err := stmt.Exec(saveArgs(entry)...); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}
	}

	return tx.Commit()
}

func saveArgs(entry *Entry) []any {
	c := entry.Candidate

	return []any{
		entry.Query,
		c.MatchAddr,
		c.X,
		c.Y,
		c.WKID,
		c.Score,
		c.Locator,
		c.LocatorType,
		c.Entity,
		c.Service,
		entry.CreatedAt,
		entry.h3Cells[0],
		entry.h3Cells[1],
		entry.h3Cells[2],
		entry.h3Cells[3],
		entry.h3Cells[4],
		entry.h3Cells[5],
		entry.h3Cells[6],
		entry.h3Cells[7],
	}
}

func (r *sqlRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM geocode_results",
	).Scan(&count)

	return count, err
}
