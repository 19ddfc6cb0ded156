// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/bureaudouble/lucarne/internal/models"
)

// InsertVisit stores one visit. When the visit carries no id (zero), the
// current unix-millisecond time is assigned, mirroring the schema default of
// the original store.
func (db *DB) InsertVisit(ctx context.Context, visit *models.Visit) error {
	if visit.ID == 0 {
		visit.ID = time.Now().UnixMilli()
	}

	params, err := marshalMap(visit.Parameters)
	if err != nil {
		return fmt.Errorf("serialize visit parameters: %w", err)
	}

	const query = `INSERT INTO visits (
		id, referrer, ip, user_agent, hostname, "path",
		latitude, longitude, country_code, region_name, city_name,
		parameters, screen_width, screen_height,
		load_time, visit_duration, session_id, "ignore"
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = db.conn.ExecContext(ctx, query,
		visit.ID,
		nullString(visit.Referrer),
		nullString(visit.IP),
		nullString(visit.UserAgent),
		nullString(visit.Hostname),
		nullString(visit.Path),
		visit.Latitude,
		visit.Longitude,
		visit.CountryCode,
		visit.RegionName,
		visit.CityName,
		params,
		visit.ScreenWidth,
		visit.ScreenHeight,
		visit.LoadTime,
		visit.VisitDuration,
		visit.SessionID,
		visit.Ignore,
	)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// UpdateVisitTimings fills load_time and/or visit_duration on an existing
// visit. These two columns are the complete allow-list: nothing else on a
// visit is ever updated. A nil field is left untouched; an id that matches
// no row is a no-op, not an error.
func (db *DB) UpdateVisitTimings(ctx context.Context, id int64, loadTime, visitDuration *float64) error {
	sets := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	if loadTime != nil {
		sets = append(sets, "load_time = ?")
		args = append(args, *loadTime)
	}
	if visitDuration != nil {
		sets = append(sets, "visit_duration = ?")
		args = append(args, *visitDuration)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE visits SET %s WHERE id = ?", strings.Join(sets, ", "))
	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update visit timings: %w", err)
	}
	return nil
}

// ListVisits returns every stored visit, ordered by id. The aggregation
// engine consumes the full set; filtering happens there, not here.
func (db *DB) ListVisits(ctx context.Context) ([]models.Visit, error) {
	const query = `SELECT
		id, referrer, ip, user_agent, hostname, "path",
		latitude, longitude, country_code, region_name, city_name,
		parameters, screen_width, screen_height,
		load_time, visit_duration, session_id, "ignore"
	FROM visits ORDER BY id`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []models.Visit
	for rows.Next() {
		var (
			v          models.Visit
			referrer   sql.NullString
			ip         sql.NullString
			userAgent  sql.NullString
			hostname   sql.NullString
			path       sql.NullString
			parameters sql.NullString
			width      sql.NullInt32
			height     sql.NullInt32
		)
		if err := rows.Scan(
			&v.ID, &referrer, &ip, &userAgent, &hostname, &path,
			&v.Latitude, &v.Longitude, &v.CountryCode, &v.RegionName, &v.CityName,
			&parameters, &width, &height,
			&v.LoadTime, &v.VisitDuration, &v.SessionID, &v.Ignore,
		); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.Referrer = referrer.String
		v.IP = ip.String
		v.UserAgent = userAgent.String
		v.Hostname = hostname.String
		v.Path = path.String
		if width.Valid {
			w := int(width.Int32)
			v.ScreenWidth = &w
		}
		if height.Valid {
			h := int(height.Int32)
			v.ScreenHeight = &h
		}
		if parameters.Valid && parameters.String != "" {
			if err := json.Unmarshal([]byte(parameters.String), &v.Parameters); err != nil {
				return nil, fmt.Errorf("parse visit %d parameters: %w", v.ID, err)
			}
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}
	return visits, nil
}

// marshalMap serializes a string map to JSON text, or NULL for an empty map.
func marshalMap(m map[string]string) (interface{}, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// nullString maps "" to NULL so empty payload fields stay distinguishable
// from deliberate empty strings in ad-hoc queries.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
