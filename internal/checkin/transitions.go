package checkin

import "github.com/iliyamo/event-checkin/internal/model"

// action names an event of the check-in state machine.
type action string

const (
	actionCheckIn  action = "check_in"
	actionCheckOut action = "check_out"
	actionNoShow   action = "no_show"
	actionCancel   action = "cancel"
)

type rule struct {
	from []model.Status
	to   model.Status
}

// transitions is the whole state machine.  Scan and manual check-in share
// the same row; guards that depend on more than the current status (event
// ended, admin role) are checked before the rule is applied.
var transitions = map[action]rule{
	actionCheckIn: {
		from: []model.Status{model.StatusNotCheckedIn},
		to:   model.StatusCheckedIn,
	},
	actionCheckOut: {
		from: []model.Status{model.StatusCheckedIn},
		to:   model.StatusCheckedOut,
	},
	actionNoShow: {
		from: []model.Status{model.StatusNotCheckedIn},
		to:   model.StatusNoShow,
	},
	actionCancel: {
		from: []model.Status{model.StatusNotCheckedIn, model.StatusCheckedIn, model.StatusCheckedOut},
		to:   model.StatusCancelled,
	},
}

// allowed reports whether a applies to a record in status s.
func allowed(a action, s model.Status) bool {
	for _, f := range transitions[a].from {
		if f == s {
			return true
		}
	}
	return false
}
