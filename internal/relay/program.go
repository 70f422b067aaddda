package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"home_climate/internal/models"
	"home_climate/internal/service"
)

// programRef is the payload of select and delete requests. Apps send either
// a bare id or {"id": ...}.
type programRef struct {
	ID int64 `json:"id"`
}

func (r *programRef) UnmarshalJSON(b []byte) error {
	if b = bytes.TrimSpace(b); len(b) > 0 && b[0] != '{' {
		return json.Unmarshal(b, &r.ID)
	}
	type plain programRef
	return json.Unmarshal(b, (*plain)(r))
}

// toggleCommand asks the thermostat to start or stop the program it stores.
type toggleCommand struct {
	ID       int64 `json:"id,omitempty"`
	IsActive bool  `json:"isActive"`
}

// programCommand asks the thermostat to store and run a program.
type programCommand struct {
	ID int64 `json:"id"`
	models.DeviceProgram
}

func newProgramCommand(p models.ClimateProgram) programCommand {
	return programCommand{ID: p.ID, DeviceProgram: p.ForDevice()}
}

func (r *Relay) registerProgramRoutes() {
	r.on(EventGetPrograms, RoleClient, r.getPrograms)
	r.on(EventSelectProgram, RoleClient, r.selectProgram)
	r.on(EventCreateProgram, RoleClient, r.createProgram)
	r.on(EventUpdateProgram, RoleClient, r.updateProgram)
	r.on(EventDeleteProgram, RoleClient, r.deleteProgram)

	r.on(EventNodeToggleProgramResult, RoleFieldNode, r.programApplied(BroadcastToggleResult))
	r.on(EventNodeUpdateProgramResult, RoleFieldNode, r.programApplied(BroadcastUpdateResult))
}

func (r *Relay) getPrograms(ctx context.Context, _ call) error {
	programs, err := r.services.Programs.List(ctx)
	if err != nil {
		return err
	}
	r.broadcast(BroadcastPrograms, programs)
	return nil
}

// selectProgram makes the requested program the active one, or clears the
// selection for id 0, then tells the thermostat what to run.
func (r *Relay) selectProgram(ctx context.Context, c call) error {
	var ref programRef
	if err := c.decode(&ref); err != nil {
		return err
	}

	sel, err := r.services.Programs.Select(ctx, ref.ID)
	if err != nil {
		// Nothing changed or the store failed half way; either way clients
		// get the state that actually holds.
		r.broadcastActive(ctx)
		return err
	}

	if sel.Program == nil {
		r.broadcast(BroadcastActiveProgram, (*models.ClimateProgram)(nil))
		r.broadcast(ProxyToggleProgram, toggleCommand{IsActive: false})
		return nil
	}

	r.broadcast(BroadcastActiveProgram, sel.Program)
	if sel.StoredOnNode {
		r.broadcast(ProxyToggleProgram, toggleCommand{ID: sel.Program.ID, IsActive: true})
	} else {
		r.broadcast(ProxyUpdateProgram, newProgramCommand(*sel.Program))
	}
	return nil
}

func (r *Relay) createProgram(ctx context.Context, c call) error {
	var p models.ClimateProgram
	if err := c.decode(&p); err != nil {
		return err
	}
	created, err := r.services.Programs.Create(ctx, p)
	if err != nil {
		return err
	}

	if created.IsActive {
		r.broadcast(ProxyUpdateProgram, newProgramCommand(created))
		r.broadcast(BroadcastActiveProgram, &created)
	}
	r.broadcast(BroadcastProgramCreated, created)
	return nil
}

func (r *Relay) updateProgram(ctx context.Context, c call) error {
	var patch models.ProgramPatch
	if err := c.decode(&patch); err != nil {
		return err
	}
	updated, err := r.services.Programs.Update(ctx, patch.ID, patch)
	if err != nil {
		return err
	}

	if updated.IsActive {
		r.broadcast(ProxyUpdateProgram, newProgramCommand(updated))
		r.broadcast(BroadcastActiveProgram, &updated)
	}
	r.broadcast(BroadcastProgramUpdated, updated)
	return nil
}

func (r *Relay) deleteProgram(ctx context.Context, c call) error {
	var ref programRef
	if err := c.decode(&ref); err != nil {
		return err
	}
	res, err := r.services.Programs.Delete(ctx, ref.ID)
	if err != nil {
		return err
	}

	r.broadcast(BroadcastProgramDeleted, res.Program)
	if res.WasActive {
		r.broadcast(BroadcastActiveProgram, (*models.ClimateProgram)(nil))
	}
	if res.NotifyFieldNode {
		r.broadcast(ProxyToggleProgram, toggleCommand{IsActive: false})
	}
	return nil
}

// programApplied handles the thermostat's answer to a toggle or update
// command. A rejection rolls the selection back and is reported to everyone.
func (r *Relay) programApplied(result string) handlerFunc {
	return func(ctx context.Context, c call) error {
		var ack models.ProgramAck
		if err := c.decode(&ack); err != nil {
			return err
		}

		active, err := r.services.Programs.Applied(ctx, ack)
		var rejected *service.ProgramRejectedError
		if errors.As(err, &rejected) {
			r.log.Warnw("program_rejected_by_thermostat", "program_id", rejected.ID, "message", rejected.Message)
			r.broadcastActive(ctx)
			r.pub.Broadcast(Envelope{Type: EventError, Data: ack, Error: rejected.Error()})
			return nil
		}
		if err != nil {
			return err
		}

		r.broadcast(result, ack)
		r.broadcast(BroadcastActiveProgram, active)
		return nil
	}
}

// broadcastActive re-reads the active program and publishes it.
func (r *Relay) broadcastActive(ctx context.Context) {
	active, err := r.services.Programs.Active(ctx)
	if err != nil {
		r.log.Errorw("active_program_lookup_failed", "err", err)
		return
	}
	r.broadcast(BroadcastActiveProgram, active)
}
