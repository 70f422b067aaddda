package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"home_climate/internal/models"
)

type ProgramSQLite struct {
	db *sql.DB
}

func NewProgramSQLite(db *sql.DB) *ProgramSQLite {
	return &ProgramSQLite{db: db}
}

const (
	programColumns = `id, name, program, mode, is_active, created_at, updated_at`

	insertProgramSQL = `
		INSERT INTO climate_programs (name, program, mode, is_active, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`

	selectProgramByIDSQL   = `SELECT ` + programColumns + ` FROM climate_programs WHERE id = ?`
	selectProgramsSQL      = `SELECT ` + programColumns + ` FROM climate_programs ORDER BY id ASC`
	selectActiveProgramSQL = `SELECT ` + programColumns + ` FROM climate_programs WHERE is_active = 1 LIMIT 1`

	clearOtherActiveSQL = `UPDATE climate_programs SET is_active = 0, updated_at = ? WHERE is_active = 1 AND id <> ?`
	setActiveSQL        = `UPDATE climate_programs SET is_active = 1, updated_at = ? WHERE id = ?`
	deactivateSQL       = `UPDATE climate_programs SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`
	deactivateAllSQL    = `UPDATE climate_programs SET is_active = 0, updated_at = ? WHERE is_active = 1`

	updateProgramSQL = `
		UPDATE climate_programs SET
			name = COALESCE(?, name),
			program = COALESCE(?, program),
			mode = COALESCE(?, mode),
			is_active = COALESCE(?, is_active),
			updated_at = ?
		WHERE id = ?
	`

	deleteProgramSQL = `DELETE FROM climate_programs WHERE id = ?`
)

// Create inserts the program inactive; activation is a separate transition.
func (r *ProgramSQLite) Create(ctx context.Context, p models.ClimateProgram) (models.ClimateProgram, error) {
	if err := validateDoc(p); err != nil {
		return models.ClimateProgram{}, err
	}
	schedule, err := json.Marshal(p.Program)
	if err != nil {
		return models.ClimateProgram{}, fmt.Errorf("marshal program schedule: %w", err)
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, insertProgramSQL, p.Name, string(schedule), p.Mode, now, now)
	if err != nil {
		return models.ClimateProgram{}, fmt.Errorf("insert program %q: %w", p.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.ClimateProgram{}, fmt.Errorf("get last insert id for program %q: %w", p.Name, err)
	}

	p.ID = id
	p.IsActive = false
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (r *ProgramSQLite) Get(ctx context.Context, id int64) (models.ClimateProgram, error) {
	p, err := scanProgram(r.db.QueryRowContext(ctx, selectProgramByIDSQL, id))
	if err != nil {
		return models.ClimateProgram{}, fmt.Errorf("select program %d: %w", id, err)
	}
	return p, nil
}

func (r *ProgramSQLite) List(ctx context.Context) ([]models.ClimateProgram, error) {
	rows, err := r.db.QueryContext(ctx, selectProgramsSQL)
	if err != nil {
		return nil, fmt.Errorf("select programs: %w", err)
	}
	defer rows.Close()

	out := make([]models.ClimateProgram, 0, 8)
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Active returns the active program or ErrNotFound when none runs.
func (r *ProgramSQLite) Active(ctx context.Context) (models.ClimateProgram, error) {
	p, err := scanProgram(r.db.QueryRowContext(ctx, selectActiveProgramSQL))
	if err != nil {
		return models.ClimateProgram{}, fmt.Errorf("select active program: %w", err)
	}
	return p, nil
}

// Activate clears whichever program is active and activates id, all in one
// transaction. A missing id leaves activation state untouched.
func (r *ProgramSQLite) Activate(ctx context.Context, id int64) (models.ClimateProgram, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ClimateProgram{}, fmt.Errorf("begin activate %d: %w", id, err)
	}
	defer rollback(tx)

	if _, err := scanProgram(tx.QueryRowContext(ctx, selectProgramByIDSQL, id)); err != nil {
		return models.ClimateProgram{}, fmt.Errorf("select program %d: %w", id, err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, clearOtherActiveSQL, now, id); err != nil {
		return models.ClimateProgram{}, fmt.Errorf("clear active programs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, setActiveSQL, now, id); err != nil {
		return models.ClimateProgram{}, fmt.Errorf("activate program %d: %w", id, err)
	}

	p, err := scanProgram(tx.QueryRowContext(ctx, selectProgramByIDSQL, id))
	if err != nil {
		return models.ClimateProgram{}, fmt.Errorf("reload program %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return models.ClimateProgram{}, fmt.Errorf("commit activate %d: %w", id, err)
	}
	return p, nil
}

// Deactivate clears id only if it is still the active program.
func (r *ProgramSQLite) Deactivate(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, deactivateSQL, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("deactivate program %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate program %d: %w", id, err)
	}
	return n > 0, nil
}

func (r *ProgramSQLite) DeactivateAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, deactivateAllSQL, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate all programs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate all programs: %w", err)
	}
	return n, nil
}

// Update applies the patch; when it activates the program the previously
// active one is cleared inside the same transaction.
func (r *ProgramSQLite) Update(ctx context.Context, id int64, patch models.ProgramPatch) (models.ClimateProgram, error) {
	if err := validateDoc(patch); err != nil {
		return models.ClimateProgram{}, err
	}

	var schedule *string
	if patch.Program != nil {
		b, err := json.Marshal(patch.Program)
		if err != nil {
			return models.ClimateProgram{}, fmt.Errorf("marshal program schedule: %w", err)
		}
		s := string(b)
		schedule = &s
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ClimateProgram{}, fmt.Errorf("begin update %d: %w", id, err)
	}
	defer rollback(tx)

	if _, err := scanProgram(tx.QueryRowContext(ctx, selectProgramByIDSQL, id)); err != nil {
		return models.ClimateProgram{}, fmt.Errorf("select program %d: %w", id, err)
	}

	now := time.Now().UTC()
	if patch.IsActive != nil && *patch.IsActive {
		if _, err := tx.ExecContext(ctx, clearOtherActiveSQL, now, id); err != nil {
			return models.ClimateProgram{}, fmt.Errorf("clear active programs: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, updateProgramSQL,
		patch.Name,
		schedule,
		patch.Mode,
		patch.IsActive,
		now,
		id,
	); err != nil {
		return models.ClimateProgram{}, fmt.Errorf("update program %d: %w", id, err)
	}

	p, err := scanProgram(tx.QueryRowContext(ctx, selectProgramByIDSQL, id))
	if err != nil {
		return models.ClimateProgram{}, fmt.Errorf("reload program %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return models.ClimateProgram{}, fmt.Errorf("commit update %d: %w", id, err)
	}
	return p, nil
}

// Delete removes the program and returns it as it was before removal.
func (r *ProgramSQLite) Delete(ctx context.Context, id int64) (models.ClimateProgram, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ClimateProgram{}, fmt.Errorf("begin delete %d: %w", id, err)
	}
	defer rollback(tx)

	p, err := scanProgram(tx.QueryRowContext(ctx, selectProgramByIDSQL, id))
	if err != nil {
		return models.ClimateProgram{}, fmt.Errorf("select program %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, deleteProgramSQL, id); err != nil {
		return models.ClimateProgram{}, fmt.Errorf("delete program %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return models.ClimateProgram{}, fmt.Errorf("commit delete %d: %w", id, err)
	}
	return p, nil
}

func scanProgram(row rowScanner) (models.ClimateProgram, error) {
	var (
		p        models.ClimateProgram
		schedule string
	)
	err := row.Scan(&p.ID, &p.Name, &schedule, &p.Mode, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ClimateProgram{}, ErrNotFound
	}
	if err != nil {
		return models.ClimateProgram{}, err
	}
	if err := json.Unmarshal([]byte(schedule), &p.Program); err != nil {
		return models.ClimateProgram{}, fmt.Errorf("decode schedule of program %d: %w", p.ID, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
