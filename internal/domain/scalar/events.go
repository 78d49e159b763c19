package scalar

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/turtacn/ExpTrack/pkg/errors"
)

// Event is a discrete user interaction applied by Dashboard.Dispatch.  The
// set is closed; every implementation lives in this file.
type Event interface {
	Type() string
	apply(s *State)
}

// Event type discriminators used on the wire.
const (
	EventToggleExperiment = "toggle_experiment"
	EventSelectAll        = "select_all"
	EventClearAll         = "clear_all"
	EventToggleMetric     = "toggle_metric"
	EventShowOnly         = "show_only"
	EventShowAll          = "show_all"
	EventSetSmoothing     = "set_smoothing"
	EventToggleSolo       = "toggle_solo"
	EventChooseSolo       = "choose_solo"
	EventSetSyncMode      = "set_sync_mode"
	EventSetFullscreen    = "set_fullscreen"
	EventChangeDomain     = "change_domain"
	EventResetDomain      = "reset_domain"
	EventResetAllDomains  = "reset_all_domains"
)

type ToggleExperiment struct {
	Index int `json:"index"`
}

func (ToggleExperiment) Type() string { return EventToggleExperiment }
func (e ToggleExperiment) apply(s *State) { s.ToggleExperiment(e.Index) }

type SelectAll struct{}

func (SelectAll) Type() string { return EventSelectAll }
func (SelectAll) apply(s *State) { s.SelectAll() }

type ClearAll struct{}

func (ClearAll) Type() string { return EventClearAll }
func (ClearAll) apply(s *State) { s.ClearAll() }

type ToggleMetric struct {
	Metric string `json:"metric"`
}

func (ToggleMetric) Type() string { return EventToggleMetric }
func (e ToggleMetric) apply(s *State) { s.ToggleMetricVisibility(e.Metric) }

type ShowOnly struct {
	Metric string `json:"metric"`
}

func (ShowOnly) Type() string { return EventShowOnly }
func (e ShowOnly) apply(s *State) { s.ShowOnly(e.Metric) }

type ShowAll struct{}

func (ShowAll) Type() string { return EventShowAll }
func (ShowAll) apply(s *State) { s.ShowAll() }

type SetSmoothing struct {
	Weight float64 `json:"weight"`
}

func (SetSmoothing) Type() string { return EventSetSmoothing }
func (e SetSmoothing) apply(s *State) { s.SetSmoothing(e.Weight) }

type ToggleSolo struct{}

func (ToggleSolo) Type() string { return EventToggleSolo }
func (ToggleSolo) apply(s *State) { s.ToggleSolo() }

type ChooseSolo struct {
	ExperimentID string `json:"experiment_id"`
}

func (ChooseSolo) Type() string { return EventChooseSolo }
func (e ChooseSolo) apply(s *State) { s.ChooseSoloExperiment(e.ExperimentID) }

type SetSyncMode struct {
	Mode SyncMode `json:"mode"`
}

func (SetSyncMode) Type() string { return EventSetSyncMode }
func (e SetSyncMode) apply(s *State) { s.SetSyncMode(e.Mode) }

type SetFullscreen struct {
	Metric string `json:"metric"`
}

func (SetFullscreen) Type() string { return EventSetFullscreen }
func (e SetFullscreen) apply(s *State) { s.SetFullscreen(e.Metric) }

type ChangeDomain struct {
	Metric string `json:"metric"`
	Domain Domain `json:"domain"`
}

func (ChangeDomain) Type() string { return EventChangeDomain }
func (e ChangeDomain) apply(s *State) { s.ChangeDomain(e.Metric, e.Domain) }

type ResetDomainEvent struct {
	Metric string `json:"metric"`
}

func (ResetDomainEvent) Type() string { return EventResetDomain }
func (e ResetDomainEvent) apply(s *State) { s.ResetDomain(e.Metric) }

type ResetAllDomains struct{}

func (ResetAllDomains) Type() string { return EventResetAllDomains }
func (ResetAllDomains) apply(s *State) { s.ResetAllDomains() }

// DecodeEvent parses a {"type": "...", ...} envelope into a typed Event.
func DecodeEvent(data []byte) (Event, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEventInvalid, "event body is not valid JSON")
	}

	switch env.Type {
	case EventToggleExperiment:
		var e ToggleExperiment
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, invalidEvent(env.Type, err)
		}
		return e, nil
	case EventSelectAll:
		return SelectAll{}, nil
	case EventClearAll:
		return ClearAll{}, nil
	case EventToggleMetric:
		var e ToggleMetric
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, invalidEvent(env.Type, err)
		}
		return e, nil
	case EventShowOnly:
		var e ShowOnly
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, invalidEvent(env.Type, err)
		}
		return e, nil
	case EventShowAll:
		return ShowAll{}, nil
	case EventSetSmoothing:
		var e SetSmoothing
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, invalidEvent(env.Type, err)
		}
		return e, nil
	case EventToggleSolo:
		return ToggleSolo{}, nil
	case EventChooseSolo:
		var e ChooseSolo
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, invalidEvent(env.Type, err)
		}
		return e, nil
	case EventSetSyncMode:
		var e SetSyncMode
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, invalidEvent(env.Type, err)
		}
		if !e.Mode.IsValid() {
			return nil, errors.New(errors.ErrCodeEventInvalid, "unknown sync mode").WithDetail(string(e.Mode))
		}
		return e, nil
	case EventSetFullscreen:
		var e SetFullscreen
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, invalidEvent(env.Type, err)
		}
		return e, nil
	case EventChangeDomain:
		var e ChangeDomain
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, invalidEvent(env.Type, err)
		}
		return e, nil
	case EventResetDomain:
		var e ResetDomainEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, invalidEvent(env.Type, err)
		}
		return e, nil
	case EventResetAllDomains:
		return ResetAllDomains{}, nil
	}
	return nil, errors.New(errors.ErrCodeEventInvalid, "unknown event type").WithDetail(env.Type)
}

func invalidEvent(typ string, err error) error {
	return errors.Wrap(err, errors.ErrCodeEventInvalid, fmt.Sprintf("malformed %s event", typ))
}

// EncodeEvent renders ev as the envelope DecodeEvent accepts.
func EncodeEvent(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode event")
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode event")
	}
	typ, _ := json.Marshal(ev.Type())
	fields["type"] = typ
	return json.Marshal(fields)
}

//Personal.AI order the ending
