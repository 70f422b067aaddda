package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"home_climate/internal/models"
	"home_climate/internal/repository"
)

var (
	ErrProgramNotFound  = errors.New("program not found")
	ErrInvalidProgramID = errors.New("invalid program id")
)

// ProgramRejectedError is returned when the thermostat refused to apply a
// program. The activation has been rolled back by then.
type ProgramRejectedError struct {
	ID      int64
	Message string
}

func (e *ProgramRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("thermostat rejected program %d", e.ID)
	}
	return e.Message
}

// ProgramService enforces that at most one program is active. Every
// transition holds mu and maps to one store transaction, so concurrent
// selections are applied one after the other.
type ProgramService struct {
	mu          sync.Mutex
	programRepo repository.ProgramRepo
	climateRepo repository.ClimateRepo
	eventRepo   repository.EventRepo
}

func NewProgramService(programRepo repository.ProgramRepo, climateRepo repository.ClimateRepo, eventRepo repository.EventRepo) *ProgramService {
	return &ProgramService{programRepo: programRepo, climateRepo: climateRepo, eventRepo: eventRepo}
}

// Create inserts the program inactive and, when it asks to be active,
// activates it right after insertion.
func (s *ProgramService) Create(ctx context.Context, p models.ClimateProgram) (models.ClimateProgram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.programRepo.Create(ctx, p)
	if err != nil {
		return models.ClimateProgram{}, err
	}
	if !p.IsActive {
		return created, nil
	}
	return s.activateLocked(ctx, created.ID)
}

// Select makes id the active program. id 0 clears the active program.
func (s *ProgramService) Select(ctx context.Context, id int64) (Selection, error) {
	if id < 0 {
		return Selection{}, ErrInvalidProgramID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == 0 {
		if err := s.deactivateAllLocked(ctx); err != nil {
			return Selection{}, err
		}
		return Selection{}, nil
	}

	p, err := s.activateLocked(ctx, id)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Program: &p, StoredOnNode: s.storedProgram(ctx) == id}, nil
}

// Update applies the patch. A patch with isActive=true clears the previously
// active program in the same transaction.
func (s *ProgramService) Update(ctx context.Context, id int64, patch models.ProgramPatch) (models.ClimateProgram, error) {
	if id <= 0 {
		return models.ClimateProgram{}, ErrInvalidProgramID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.programRepo.Update(ctx, id, patch)
	if err != nil {
		return models.ClimateProgram{}, mapProgramErr(err)
	}
	if patch.IsActive != nil {
		typ := models.EventProgramDeactivated
		if *patch.IsActive {
			typ = models.EventProgramActivated
		}
		recordEvent(ctx, s.eventRepo, typ, "program "+p.Name+" updated", map[string]any{"id": p.ID})
	}
	return p, nil
}

// Delete removes the program and reports whether the thermostat has to be
// told to stop running it.
func (s *ProgramService) Delete(ctx context.Context, id int64) (DeleteResult, error) {
	if id <= 0 {
		return DeleteResult{}, ErrInvalidProgramID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.programRepo.Delete(ctx, id)
	if err != nil {
		return DeleteResult{}, mapProgramErr(err)
	}

	res := DeleteResult{Program: p, WasActive: p.IsActive}
	if p.IsActive {
		recordEvent(ctx, s.eventRepo, models.EventProgramDeactivated, "active program "+p.Name+" deleted",
			map[string]any{"id": p.ID})
		res.NotifyFieldNode = s.storedProgram(ctx) == id
	}
	return res, nil
}

// Applied handles the thermostat's acknowledgment of a toggle or update
// request. On success it returns the program now active (nil for none). On
// failure the program is deactivated, unless another selection already
// replaced it, and a *ProgramRejectedError is returned.
func (s *ProgramService) Applied(ctx context.Context, ack models.ProgramAck) (*models.ClimateProgram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ack.Success {
		rolledBack, err := s.programRepo.Deactivate(ctx, ack.ID)
		if err != nil {
			return nil, err
		}
		if rolledBack {
			recordEvent(ctx, s.eventRepo, models.EventProgramRolledBack, "thermostat rejected program",
				map[string]any{"id": ack.ID, "message": ack.Message})
		}
		return nil, &ProgramRejectedError{ID: ack.ID, Message: ack.Message}
	}

	switch active := ack.IsActive; {
	case active == nil:
		// An update answer without isActive leaves the selection alone.
	case *active && ack.ID > 0:
		p, err := s.activateLocked(ctx, ack.ID)
		if err != nil {
			return nil, err
		}
		return &p, nil
	case *active:
		// Nothing named to activate.
	case ack.ID > 0:
		if _, err := s.programRepo.Deactivate(ctx, ack.ID); err != nil {
			return nil, err
		}
	default:
		if err := s.deactivateAllLocked(ctx); err != nil {
			return nil, err
		}
	}
	return s.currentActive(ctx)
}

// Active returns the active program, or nil when no program runs.
func (s *ProgramService) Active(ctx context.Context) (*models.ClimateProgram, error) {
	return s.currentActive(ctx)
}

func (s *ProgramService) List(ctx context.Context) ([]models.ClimateProgram, error) {
	return s.programRepo.List(ctx)
}

func (s *ProgramService) Get(ctx context.Context, id int64) (models.ClimateProgram, error) {
	if id <= 0 {
		return models.ClimateProgram{}, ErrInvalidProgramID
	}
	p, err := s.programRepo.Get(ctx, id)
	if err != nil {
		return models.ClimateProgram{}, mapProgramErr(err)
	}
	return p, nil
}

func (s *ProgramService) activateLocked(ctx context.Context, id int64) (models.ClimateProgram, error) {
	p, err := s.programRepo.Activate(ctx, id)
	if err != nil {
		return models.ClimateProgram{}, mapProgramErr(err)
	}
	recordEvent(ctx, s.eventRepo, models.EventProgramActivated, "program "+p.Name+" activated",
		map[string]any{"id": p.ID, "mode": p.Mode})
	return p, nil
}

func (s *ProgramService) deactivateAllLocked(ctx context.Context) error {
	n, err := s.programRepo.DeactivateAll(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		recordEvent(ctx, s.eventRepo, models.EventProgramDeactivated, "no program running", nil)
	}
	return nil
}

func (s *ProgramService) currentActive(ctx context.Context) (*models.ClimateProgram, error) {
	p, err := s.programRepo.Active(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// storedProgram returns the program id the thermostat last reported holding.
// A failed lookup counts as "not stored", which makes callers send the full
// program instead of a bare toggle.
func (s *ProgramService) storedProgram(ctx context.Context) int64 {
	latest, err := s.climateRepo.Latest(ctx)
	if err != nil {
		return 0
	}
	return latest.StoredProgram
}

func mapProgramErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProgramNotFound
	}
	return err
}
