package repository

import (
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/lib/pq"
)

//go:embed schema.sql
var postgresSchema string

const reportColumns = `id, title, details, address,
	ST_X(location::geometry), ST_Y(location::geometry),
	photo_url, photo_delete_key, created_time, photo_timestamp,
	report_type, status, owner_id,
	resolved_by, resolved_at, resolution_photo_url, resolution_photo_delete_key,
	ST_X(resolution_location::geometry), ST_Y(resolution_location::geometry)`

const pointExpr = "ST_SetSRID(ST_MakePoint(%s, %s), 4326)::geography"

// PostgresReportStore keeps reports in PostGIS. Locations are geography points
// with a GiST index, so Near is served by ST_DWithin.
type PostgresReportStore struct {
	db    *sql.DB
	newID func() string
	now   func() time.Time
}

func NewPostgresReportStore(db *sql.DB) *PostgresReportStore {
	return &PostgresReportStore{
		db:    db,
		newID: helper.NewID,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *PostgresReportStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to apply report schema: %w", err)
	}
	return nil
}

func (s *PostgresReportStore) Create(ctx context.Context, draft *entity.Report) (*entity.Report, error) {
	r, err := prepareDraft(draft, s.newID, s.now)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO reports (id, title, details, address, location, photo_url, photo_delete_key,
		created_time, photo_timestamp, report_type, status, owner_id)
		VALUES ($1, $2, $3, $4, ` + fmt.Sprintf(pointExpr, "$5", "$6") + `, $7, $8, $9, $10, $11, $12, $13)`

	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.Title, r.Details, r.Address,
		r.Location.Longitude(), r.Location.Latitude(),
		r.Photo.URL, r.Photo.DeleteKey,
		r.CreatedTime, r.PhotoTimestamp,
		string(r.ReportType), string(r.Status), r.OwnerID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%w: id %s already used", entity.ErrInvalidReport, r.ID)
		}
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}

	return r, nil
}

func (s *PostgresReportStore) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM reports WHERE id = $1", id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return r, nil
}

func (s *PostgresReportStore) List(ctx context.Context, filter ReportFilter, sort ReportSort, page Page) iter.Seq2[*entity.Report, error] {
	cursorTime, cursorID, hasCursor, err := decodePageCursor(page.Cursor)
	if err != nil {
		return errSeq(err)
	}

	var sb strings.Builder
	args := []any{string(filter.status())}
	sb.WriteString("SELECT " + reportColumns + " FROM reports WHERE status = $1")

	if filter.ReportType != "" {
		args = append(args, string(filter.ReportType))
		fmt.Fprintf(&sb, " AND report_type = $%d", len(args))
	}

	cmpOp, order := "<", "DESC"
	if sort == SortOldestFirst {
		cmpOp, order = ">", "ASC"
	}

	if hasCursor {
		args = append(args, cursorTime, cursorID)
		t, i := len(args)-1, len(args)
		fmt.Fprintf(&sb, " AND (created_time %s $%d OR (created_time = $%d AND id > $%d))", cmpOp, t, t, i)
	}

	fmt.Fprintf(&sb, " ORDER BY created_time %s, id ASC", order)

	if page.Limit > 0 {
		args = append(args, page.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	return s.query(ctx, sb.String(), args, false)
}

// Update locks the row, checks the expected status and writes the patch in one
// transaction.
func (s *PostgresReportStore) Update(ctx context.Context, id string, patch ReportPatch) (*entity.Report, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM reports WHERE id = $1 FOR UPDATE", id)
	current, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock report: %w", err)
	}

	if patch.ExpectedStatus != "" && current.Status != patch.ExpectedStatus {
		return nil, ErrStatusConflict
	}

	next, err := patch.apply(current)
	if err != nil {
		return nil, err
	}

	var (
		resolvedBy, photoURL, deleteKey sql.NullString
		resolvedAt                      sql.NullTime
		lon, lat                        sql.NullFloat64
	)
	if res := next.Resolution; res != nil {
		resolvedBy = sql.NullString{String: res.ResolvedBy, Valid: true}
		resolvedAt = sql.NullTime{Time: res.ResolvedAt, Valid: true}
		photoURL = sql.NullString{String: res.Photo.URL, Valid: true}
		deleteKey = sql.NullString{String: res.Photo.DeleteKey, Valid: true}
		lon = sql.NullFloat64{Float64: res.Location.Longitude(), Valid: true}
		lat = sql.NullFloat64{Float64: res.Location.Latitude(), Valid: true}
	}

	query := `UPDATE reports SET status = $2, resolved_by = $3, resolved_at = $4,
		resolution_photo_url = $5, resolution_photo_delete_key = $6,
		resolution_location = CASE WHEN $7::float8 IS NULL THEN NULL ELSE ` + fmt.Sprintf(pointExpr, "$7", "$8") + ` END
		WHERE id = $1`

	if _, err := tx.ExecContext(ctx, query, id, string(next.Status), resolvedBy, resolvedAt, photoURL, deleteKey, lon, lat); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit report update: %w", err)
	}

	return next, nil
}

func (s *PostgresReportStore) Near(ctx context.Context, q NearQuery) iter.Seq2[*entity.Report, error] {
	args := []any{q.Point.Longitude(), q.Point.Latitude(), q.RadiusMeters}
	point := fmt.Sprintf(pointExpr, "$1", "$2")

	var sb strings.Builder
	sb.WriteString("SELECT " + reportColumns + ", ST_Distance(location, " + point + ") AS distance")
	sb.WriteString(" FROM reports WHERE ST_DWithin(location, " + point + ", $3)")

	if q.Status != "" {
		args = append(args, string(q.Status))
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}

	sb.WriteString(" ORDER BY distance ASC, id ASC")

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	return s.query(ctx, sb.String(), args, true)
}

func (s *PostgresReportStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *PostgresReportStore) query(ctx context.Context, query string, args []any, withDistance bool) iter.Seq2[*entity.Report, error] {
	return func(yield func(*entity.Report, error) bool) {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("failed to query reports: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var r *entity.Report
			if withDistance {
				var distance float64
				r, err = scanReport(rows, &distance)
			} else {
				r, err = scanReport(rows)
			}
			if err != nil {
				yield(nil, fmt.Errorf("failed to scan report: %w", err))
				return
			}
			if !yield(r, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("failed to iterate reports: %w", err))
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner, extra ...any) (*entity.Report, error) {
	var (
		r                               entity.Report
		lon, lat                        float64
		reportType, status              string
		resolvedBy, photoURL, deleteKey sql.NullString
		resolvedAt                      sql.NullTime
		resLon, resLat                  sql.NullFloat64
	)

	dest := []any{
		&r.ID, &r.Title, &r.Details, &r.Address,
		&lon, &lat,
		&r.Photo.URL, &r.Photo.DeleteKey, &r.CreatedTime, &r.PhotoTimestamp,
		&reportType, &status, &r.OwnerID,
		&resolvedBy, &resolvedAt, &photoURL, &deleteKey,
		&resLon, &resLat,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	r.Location = entity.GeoPoint{Type: entity.GeometryPoint, Coordinates: [2]float64{lon, lat}}
	r.CreatedTime = r.CreatedTime.UTC()
	r.PhotoTimestamp = r.PhotoTimestamp.UTC()
	r.ReportType = entity.ReportType(reportType)
	r.Status = entity.ReportStatus(status)

	if resolvedBy.Valid {
		r.Resolution = &entity.Resolution{
			ResolvedBy: resolvedBy.String,
			ResolvedAt: resolvedAt.Time.UTC(),
			Photo:      entity.PhotoRef{URL: photoURL.String, DeleteKey: deleteKey.String},
			Location: entity.GeoPoint{
				Type:        entity.GeometryPoint,
				Coordinates: [2]float64{resLon.Float64, resLat.Float64},
			},
		}
	}

	return &r, nil
}
