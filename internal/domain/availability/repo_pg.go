package availability

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type windowRepoPG struct{ pool *pgxpool.Pool }

func NewWindowRepoPG(pool *pgxpool.Pool) WindowRepository { return &windowRepoPG{pool: pool} }

const windowCols = `id, doctor_id, day_of_week, start_time, end_time, is_available, created_at, updated_at`

func (r *windowRepoPG) scanWindow(row pgx.Row) (*Window, error) {
	var w Window
	err := row.Scan(&w.ID, &w.DoctorID, &w.DayOfWeek, &w.StartTime, &w.EndTime,
		&w.IsAvailable, &w.CreatedAt, &w.UpdatedAt)
	return &w, err
}

func (r *windowRepoPG) Create(ctx context.Context, w *Window) error {
	w.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_window (id, doctor_id, day_of_week, start_time, end_time, is_available)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		w.ID, w.DoctorID, int(w.DayOfWeek), w.StartTime, w.EndTime, w.IsAvailable)
	return err
}

func (r *windowRepoPG) Update(ctx context.Context, w *Window) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE availability_window
		SET day_of_week=$2, start_time=$3, end_time=$4, is_available=$5, updated_at=NOW()
		WHERE id = $1`,
		w.ID, int(w.DayOfWeek), w.StartTime, w.EndTime, w.IsAvailable)
	return err
}

func (r *windowRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM availability_window WHERE id = $1`, id)
	return err
}

func (r *windowRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Window, error) {
	return r.scanWindow(r.pool.QueryRow(ctx,
		`SELECT `+windowCols+` FROM availability_window WHERE id = $1`, id))
}

func (r *windowRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Window, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+windowCols+` FROM availability_window
		WHERE doctor_id = $1
		ORDER BY day_of_week, start_time`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Window
	for rows.Next() {
		w, err := r.scanWindow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}
