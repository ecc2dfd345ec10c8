package core

import (
	"time"
)

// phase is the position of one (event type, neighbour) pair in its
// enter/leave cycle.
type phase int

const (
	phaseIdle phase = iota
	phasePendingEnter
	phaseEntered
	phasePendingLeave
)

// eventState tracks whether a triggering condition is currently satisfied
// and since when, for time-to-trigger accounting.
type eventState struct {
	phase phase
	since time.Time
}

// advance steps the state machine for one instant. A condition must hold
// continuously for ttt before the corresponding transition is emitted; an
// interruption resets the accumulated duration to zero. Returns +1 when an
// enter fires, -1 for a leave, 0 otherwise.
func (st *eventState) advance(t time.Time, enterCond, leaveCond bool, ttt time.Duration) int {
	switch st.phase {
	case phaseIdle, phasePendingEnter:
		if !enterCond {
			st.phase = phaseIdle
			return 0
		}
		if st.phase == phaseIdle {
			st.phase = phasePendingEnter
			st.since = t
		}
		if t.Sub(st.since) >= ttt {
			st.phase = phaseEntered
			return 1
		}
	case phaseEntered, phasePendingLeave:
		if !leaveCond {
			st.phase = phaseEntered
			return 0
		}
		if st.phase == phaseEntered {
			st.phase = phasePendingLeave
			st.since = t
		}
		if t.Sub(st.since) >= ttt {
			st.phase = phaseIdle
			return -1
		}
	}
	return 0
}

type stateKey struct {
	event     EventType
	neighbour string
}

// Detector walks a merged, serving/neighbour-labeled timeline in timestamp
// order and emits measurement events. Each (event type, neighbour) pair
// carries independent state in an explicit map; multiple neighbours can be
// entered simultaneously for A3/A4/D2, while A5's serving-side condition is
// shared across all neighbour evaluations at a given instant.
//
// A Detector is owned by exactly one timeline evaluation and is not safe
// for concurrent use.
type Detector struct {
	cfg    DetectorConfig
	states map[stateKey]*eventState
	events []HandoverEvent
}

// NewDetector validates the configuration and returns a fresh detector.
// Malformed or missing configuration for a requested event type fails here,
// at startup, not per sample.
func NewDetector(cfg DetectorConfig) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{
		cfg:    cfg,
		states: make(map[stateKey]*eventState),
	}, nil
}

// Reset clears all per-pair state and the event log so the detector can be
// reused for an independent evaluation run.
func (d *Detector) Reset() {
	d.states = make(map[stateKey]*eventState)
	d.events = nil
}

// Events returns the ordered event log accumulated so far.
func (d *Detector) Events() []HandoverEvent {
	return d.events
}

// Evaluate processes one time instant. Neighbours must already be sorted by
// satellite identifier so emission order is deterministic. An instant with
// no neighbours yields no evaluation, which is not an error.
func (d *Detector) Evaluate(t time.Time, serving Observation, neighbours []Observation) {
	if len(neighbours) == 0 {
		return
	}

	// A5's serving-side sub-condition is evaluated once per instant and
	// shared across every neighbour comparison.
	var a5ServingEnter, a5ServingLeave bool
	if c := d.cfg.A5; c != nil {
		a5ServingEnter = serving.RSRPDBm+c.HysteresisDB < c.Threshold1DBm
		a5ServingLeave = serving.RSRPDBm-c.HysteresisDB > c.Threshold1DBm
	}

	for _, n := range neighbours {
		if n.SatelliteID == serving.SatelliteID {
			continue
		}

		if c := d.cfg.A3; c != nil {
			enter := n.RSRPDBm+c.NeighbourOffsetDB-c.HysteresisDB > serving.RSRPDBm+c.ServingOffsetDB
			leave := n.RSRPDBm+c.NeighbourOffsetDB+c.HysteresisDB < serving.RSRPDBm+c.ServingOffsetDB
			d.step(EventA3, t, serving, n, enter, leave, c.TimeToTrigger)
		}
		if c := d.cfg.A4; c != nil {
			enter := n.RSRPDBm-c.HysteresisDB > c.ThresholdDBm
			leave := n.RSRPDBm+c.HysteresisDB < c.ThresholdDBm
			d.step(EventA4, t, serving, n, enter, leave, c.TimeToTrigger)
		}
		if c := d.cfg.A5; c != nil {
			enter := a5ServingEnter && n.RSRPDBm-c.HysteresisDB > c.Threshold2DBm
			leave := a5ServingLeave || n.RSRPDBm+c.HysteresisDB < c.Threshold2DBm
			d.step(EventA5, t, serving, n, enter, leave, c.TimeToTrigger)
		}
		if c := d.cfg.D2; c != nil {
			enter := serving.SlantRangeKm-c.HysteresisKm > c.ServingDistanceKm &&
				n.SlantRangeKm+c.HysteresisKm < c.NeighbourDistanceKm
			leave := serving.SlantRangeKm+c.HysteresisKm < c.ServingDistanceKm ||
				n.SlantRangeKm-c.HysteresisKm > c.NeighbourDistanceKm
			d.step(EventD2, t, serving, n, enter, leave, c.TimeToTrigger)
		}
	}
}

func (d *Detector) step(ev EventType, t time.Time, serving, neighbour Observation, enterCond, leaveCond bool, ttt time.Duration) {
	key := stateKey{event: ev, neighbour: neighbour.SatelliteID}
	st, ok := d.states[key]
	if !ok {
		st = &eventState{}
		d.states[key] = st
	}

	switch st.advance(t, enterCond, leaveCond, ttt) {
	case 1:
		d.emit(ev, t, serving, neighbour, true)
	case -1:
		d.emit(ev, t, serving, neighbour, false)
	}
}

func (d *Detector) emit(ev EventType, t time.Time, serving, neighbour Observation, entered bool) {
	d.events = append(d.events, HandoverEvent{
		Type:                 ev,
		Time:                 t,
		ServingSatelliteID:   serving.SatelliteID,
		NeighbourSatelliteID: neighbour.SatelliteID,
		Entered:              entered,
		ServingRSRPDBm:       serving.RSRPDBm,
		NeighbourRSRPDBm:     neighbour.RSRPDBm,
		ServingRangeKm:       serving.SlantRangeKm,
		NeighbourRangeKm:     neighbour.SlantRangeKm,
	})
}
