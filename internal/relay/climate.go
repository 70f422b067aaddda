package relay

import (
	"context"
	"errors"

	"home_climate/internal/models"
	"home_climate/internal/service"

	"golang.org/x/sync/errgroup"
)

func (r *Relay) registerClimateRoutes() {
	// Client requests the thermostat answers itself.
	for _, ev := range []string{
		EventPingThermostat,
		EventGetClimateData,
		EventUpdateClimateSettings,
		EventUpdateZoneName,
		EventGetThermostatProgramID,
	} {
		r.on(ev, RoleClient, r.forward(proxyOf(ev)))
	}

	// Field node notices relayed to everyone.
	for _, ev := range []string{
		EventNodePingResponse,
		EventNodeConnection,
		EventNodeDisconnection,
		EventNodeVerification,
		EventNodeProgramIDResponse,
	} {
		r.on(ev, RoleFieldNode, r.forward(broadcastOf(ev)))
	}

	r.on(EventNodePostClimateData, RoleFieldNode, r.postClimateData)
	r.on(EventNodeClimateSettingsResult, RoleFieldNode, r.climateSettingsApplied)
	r.on(EventNodeInitialState, RoleFieldNode, r.initialState)
}

func (r *Relay) postClimateData(ctx context.Context, c call) error {
	var reading models.ClimateReading
	if err := c.decode(&reading); err != nil {
		return err
	}
	saved, err := r.services.Climate.Record(ctx, reading)
	if err != nil {
		return err
	}
	r.broadcast(BroadcastClimatePosted, saved)
	return nil
}

// climateSettingsApplied patches the newest reading in place once the
// thermostat confirms new settings.
func (r *Relay) climateSettingsApplied(ctx context.Context, c call) error {
	var settings models.ClimateSettings
	if err := c.decode(&settings); err != nil {
		return err
	}
	updated, err := r.services.Climate.ApplySettings(ctx, settings)
	if err != nil {
		return err
	}
	r.broadcast(BroadcastSettingsApplied, updated)
	return nil
}

// initialState answers a freshly booted thermostat with the latest reading and
// the active program. The two lookups are independent.
func (r *Relay) initialState(ctx context.Context, _ call) error {
	var (
		reading *models.ClimateReading
		active  *models.ClimateProgram
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		latest, err := r.services.Climate.Latest(gctx)
		if errors.Is(err, service.ErrNoClimateData) {
			return nil
		}
		if err != nil {
			return err
		}
		reading = &latest
		return nil
	})
	g.Go(func() error {
		p, err := r.services.Programs.Active(gctx)
		if err != nil {
			return err
		}
		active = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	r.broadcast(BroadcastClimateData, reading)
	r.broadcast(BroadcastActiveProgram, active)
	return nil
}
