// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/bureaudouble/lucarne/internal/models"
)

// InsertEvent stores one interaction event. Events are append-only: nothing
// in this system updates or deletes them.
func (db *DB) InsertEvent(ctx context.Context, event *models.Event) error {
	if event.ID == 0 {
		event.ID = time.Now().UnixMilli()
	}

	value, err := marshalMap(event.Value)
	if err != nil {
		return fmt.Errorf("serialize event value: %w", err)
	}

	const query = `INSERT INTO events (id, visit_id, category, action, "value", label)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err = db.conn.ExecContext(ctx, query,
		event.ID,
		event.VisitID,
		event.Category,
		event.Action,
		value,
		nullString(event.Label),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns every stored event, ordered by id.
func (db *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	const query = `SELECT id, visit_id, category, action, "value", label
		FROM events ORDER BY id`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			ev    models.Event
			value sql.NullString
			label sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.VisitID, &ev.Category, &ev.Action, &value, &label); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Label = label.String
		if value.Valid && value.String != "" {
			if err := json.Unmarshal([]byte(value.String), &ev.Value); err != nil {
				return nil, fmt.Errorf("parse event %d value: %w", ev.ID, err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
