// Package checkin is the check-in engine: it verifies scanned credentials,
// drives each participant through the check-in state machine and reports a
// typed Outcome for every request.
//
// The package holds no cross-station lock.  Every state change is a single
// conditional transition in the Store, so at most one request wins per
// participant and event, however many stations race.  Losers read the
// current record and report it (AlreadyCheckedIn and friends) instead of
// retrying.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-checkin/internal/credential"
	"github.com/iliyamo/event-checkin/internal/model"
	"github.com/iliyamo/event-checkin/internal/queue"
	"github.com/iliyamo/event-checkin/internal/repository"
)

// DefaultStoreTimeout bounds each request's store round trips when no
// timeout is configured.
const DefaultStoreTimeout = 3 * time.Second

var (
	// ErrEventNotEnded is returned by MarkNoShowsForEvent before the event
	// is over, unless the admin override is set.
	ErrEventNotEnded = errors.New("event has not ended")
	// ErrInvalidRef is returned for empty participant or event references.
	ErrInvalidRef = errors.New("invalid reference")
	// errLostRace means the guard failed but the record still allows the
	// transition.  Only an out-of-band write can cause it.
	errLostRace = errors.New("concurrent update, retry")
)

// Store is the check-in state store adapter.  Transition must be atomic:
// it returns true only for the request that moved the record.
type Store interface {
	Get(ctx context.Context, participantRef, eventRef string) (model.CheckinRecord, error)
	Transition(ctx context.Context, t model.Transition) (bool, error)
	ListByEvent(ctx context.Context, eventRef string) ([]model.CheckinRecord, error)
	SetFlag(ctx context.Context, participantRef, eventRef string, flag model.Flag, value bool, at time.Time) error
	MarkNoShows(ctx context.Context, eventRef string, participantRefs []string, at time.Time) (int64, error)
}

// Roster is the participant and event collaborator.  ResolveParticipant
// returns repository.ErrParticipantNotFound and Event returns
// repository.ErrEventNotFound for unknown references.
type Roster interface {
	ResolveParticipant(ctx context.Context, participantRef string) (model.Participant, error)
	Event(ctx context.Context, eventRef string) (model.Event, error)
	ListParticipants(ctx context.Context, eventRef string) ([]model.Participant, error)
	ExpectedCount(ctx context.Context, eventRef string) (int, error)
	MarkCredentialIssued(ctx context.Context, participantRef, checksum string, at time.Time) (bool, error)
}

// Publisher receives domain events.  Failures are logged and never change
// the outcome of a check-in.
type Publisher interface {
	PublishTransition(ctx context.Context, ev queue.TransitionEvent) error
	PublishRejection(ctx context.Context, ev queue.RejectionEvent) error
}

// Options configures a Service.  Zero values select defaults.
type Options struct {
	Publisher    Publisher
	Logger       logrus.FieldLogger
	Clock        func() time.Time
	StoreTimeout time.Duration
}

// Service is the check-in orchestrator.  It is safe for concurrent use.
type Service struct {
	store    Store
	roster   Roster
	verifier *credential.Verifier
	events   Publisher
	log      logrus.FieldLogger
	now      func() time.Time
	timeout  time.Duration
}

// NewService wires the orchestrator.  store, roster and verifier must be
// non-nil.
func NewService(store Store, roster Roster, verifier *credential.Verifier, opts Options) *Service {
	if store == nil || roster == nil || verifier == nil {
		panic("nil dependency passed to checkin.NewService")
	}
	s := &Service{
		store:    store,
		roster:   roster,
		verifier: verifier,
		events:   opts.Publisher,
		log:      opts.Logger,
		now:      opts.Clock,
		timeout:  opts.StoreTimeout,
	}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = l
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.timeout <= 0 {
		s.timeout = DefaultStoreTimeout
	}
	return s
}

// Now returns the service clock in UTC.
func (s *Service) Now() time.Time { return s.now().UTC() }

type stationKey struct{}

// WithStation tags ctx with the ID of the station handling the request.
// It only feeds logs and published events.
func WithStation(ctx context.Context, stationID string) context.Context {
	return context.WithValue(ctx, stationKey{}, stationID)
}

func stationFrom(ctx context.Context) string {
	s, _ := ctx.Value(stationKey{}).(string)
	return s
}

// ProcessScan handles decoded scan text read at a station operating for
// stationEventRef: decode, verify, then the check-in transition.
func (s *Service) ProcessScan(ctx context.Context, raw, stationEventRef string) Outcome {
	log := s.log.WithFields(logrus.Fields{"station": stationFrom(ctx), "event": stationEventRef})

	c, err := credential.Decode(raw)
	if err != nil {
		log.WithError(err).Info("unreadable scan")
		return Outcome{Kind: OutcomeMalformed, Method: model.MethodScan}
	}
	participantRef, eventRef, err := s.verifier.Verify(c)
	if err != nil {
		log.WithFields(logrus.Fields{
			"claimed_participant": c.ParticipantRef,
			"claimed_event":       c.EventRef,
		}).Warn("credential failed verification")
		s.publishRejection(ctx, c, stationEventRef)
		return Outcome{Kind: OutcomeChecksumMismatch, Method: model.MethodScan}
	}
	if eventRef != stationEventRef {
		log.WithFields(logrus.Fields{"participant": participantRef, "credential_event": eventRef}).
			Info("credential belongs to another event")
		return Outcome{Kind: OutcomeEventMismatch, Method: model.MethodScan, EventRef: eventRef}
	}
	return s.checkIn(ctx, participantRef, eventRef, model.MethodScan)
}

// ProcessManualCheckIn checks a participant in by reference, without a
// credential.  It goes through the same transition as a scan.
func (s *Service) ProcessManualCheckIn(ctx context.Context, participantRef, eventRef string) Outcome {
	if participantRef == "" || eventRef == "" {
		return Outcome{Kind: OutcomeNotFound, Method: model.MethodManual}
	}
	return s.checkIn(ctx, participantRef, eventRef, model.MethodManual)
}

func (s *Service) checkIn(ctx context.Context, participantRef, eventRef string, method model.Method) Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, out, ok := s.resolve(ctx, participantRef, eventRef, method)
	if !ok {
		return out
	}
	now := s.Now()
	won, rec, err := s.apply(ctx, actionCheckIn, participantRef, eventRef, method, now)
	if err != nil {
		return s.unavailable(ctx, err, method, &p)
	}
	out = Outcome{Method: method, Participant: &p, Record: &rec, EventRef: eventRef}
	switch {
	case won:
		out.Kind = OutcomeCheckedIn
		s.publishTransition(ctx, p, model.StatusCheckedIn, method, now)
	case rec.Status == model.StatusCheckedIn:
		out.Kind = OutcomeAlreadyCheckedIn
	case rec.Status == model.StatusCheckedOut:
		out.Kind = OutcomeAlreadyCheckedOut
	default:
		out.Kind = OutcomeIneligible
		out.Reason = string(rec.Status)
	}
	s.logOutcome(ctx, out)
	return out
}

// CheckOut moves a checked-in participant to checked_out.
func (s *Service) CheckOut(ctx context.Context, participantRef, eventRef string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, out, ok := s.resolve(ctx, participantRef, eventRef, "")
	if !ok {
		return out
	}
	now := s.Now()
	won, rec, err := s.apply(ctx, actionCheckOut, participantRef, eventRef, "", now)
	if err != nil {
		return s.unavailable(ctx, err, "", &p)
	}
	out = Outcome{Method: rec.Method, Participant: &p, Record: &rec, EventRef: eventRef}
	switch {
	case won:
		out.Kind = OutcomeCheckedOut
		s.publishTransition(ctx, p, model.StatusCheckedOut, rec.Method, now)
	case rec.Status == model.StatusNotCheckedIn:
		out.Kind = OutcomeNotCheckedInYet
	case rec.Status == model.StatusCheckedOut:
		out.Kind = OutcomeAlreadyCheckedOut
	default:
		out.Kind = OutcomeIneligible
		out.Reason = string(rec.Status)
	}
	s.logOutcome(ctx, out)
	return out
}

// MarkNoShow marks a participant who never arrived.  Unless override is set
// (admin), the event must have ended.
func (s *Service) MarkNoShow(ctx context.Context, participantRef, eventRef string, override bool) Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, out, ok := s.resolve(ctx, participantRef, eventRef, "")
	if !ok {
		return out
	}
	if !override {
		ev, err := s.roster.Event(ctx, eventRef)
		if errors.Is(err, repository.ErrEventNotFound) {
			return Outcome{Kind: OutcomeNotFound, Participant: &p, EventRef: eventRef}
		}
		if err != nil {
			return s.unavailable(ctx, err, "", &p)
		}
		if !ev.Ended(s.Now()) {
			return Outcome{Kind: OutcomeIneligible, Participant: &p, EventRef: eventRef, Reason: ErrEventNotEnded.Error()}
		}
	}
	now := s.Now()
	won, rec, err := s.apply(ctx, actionNoShow, participantRef, eventRef, "", now)
	if err != nil {
		return s.unavailable(ctx, err, "", &p)
	}
	out = Outcome{Participant: &p, Record: &rec, EventRef: eventRef, Method: rec.Method}
	switch {
	case won, rec.Status == model.StatusNoShow:
		out.Kind = OutcomeMarkedNoShow
		if won {
			s.publishTransition(ctx, p, model.StatusNoShow, "", now)
		}
	case rec.Status == model.StatusCheckedIn:
		out.Kind = OutcomeAlreadyCheckedIn
	case rec.Status == model.StatusCheckedOut:
		out.Kind = OutcomeAlreadyCheckedOut
	default:
		out.Kind = OutcomeIneligible
		out.Reason = string(rec.Status)
	}
	s.logOutcome(ctx, out)
	return out
}

// Cancel cancels a participant's attendance.  Callers must restrict it to
// administrators.
func (s *Service) Cancel(ctx context.Context, participantRef, eventRef string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, out, ok := s.resolve(ctx, participantRef, eventRef, "")
	if !ok {
		return out
	}
	now := s.Now()
	won, rec, err := s.apply(ctx, actionCancel, participantRef, eventRef, "", now)
	if err != nil {
		return s.unavailable(ctx, err, "", &p)
	}
	out = Outcome{Participant: &p, Record: &rec, EventRef: eventRef}
	switch {
	case won:
		out.Kind = OutcomeCancelled
		s.publishTransition(ctx, p, model.StatusCancelled, "", now)
	case rec.Status == model.StatusCancelled:
		out.Kind = OutcomeAlreadyCancelled
	default:
		out.Kind = OutcomeIneligible
		out.Reason = string(rec.Status)
	}
	s.logOutcome(ctx, out)
	return out
}

// MarkNoShowsForEvent marks every roster participant still not_checked_in
// as no_show and returns how many changed.
func (s *Service) MarkNoShowsForEvent(ctx context.Context, eventRef string, override bool) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ev, err := s.roster.Event(ctx, eventRef)
	if err != nil {
		return 0, err
	}
	if !override && !ev.Ended(s.Now()) {
		return 0, ErrEventNotEnded
	}
	roster, err := s.roster.ListParticipants(ctx, eventRef)
	if err != nil {
		return 0, err
	}
	refs := make([]string, 0, len(roster))
	for _, p := range roster {
		refs = append(refs, p.Ref)
	}
	n, err := s.store.MarkNoShows(ctx, eventRef, refs, s.Now())
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"event": eventRef, "count": n}).Info("marked no-shows")
	return n, nil
}

// Record returns the current check-in record of a participant.
func (s *Service) Record(ctx context.Context, participantRef, eventRef string) (model.CheckinRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.belongs(ctx, participantRef, eventRef); err != nil {
		return model.CheckinRecord{}, err
	}
	return s.store.Get(ctx, participantRef, eventRef)
}

// SetBadgePrinted records whether the participant's badge was printed.
func (s *Service) SetBadgePrinted(ctx context.Context, participantRef, eventRef string, printed bool) error {
	return s.setFlag(ctx, participantRef, eventRef, model.FlagBadgePrinted, printed)
}

// SetMaterialsProvided records whether the participant received the
// welcome materials.
func (s *Service) SetMaterialsProvided(ctx context.Context, participantRef, eventRef string, provided bool) error {
	return s.setFlag(ctx, participantRef, eventRef, model.FlagMaterialsProvided, provided)
}

func (s *Service) setFlag(ctx context.Context, participantRef, eventRef string, flag model.Flag, value bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.belongs(ctx, participantRef, eventRef); err != nil {
		return err
	}
	return s.store.SetFlag(ctx, participantRef, eventRef, flag, value, s.Now())
}

// belongs returns ErrParticipantNotFound unless participantRef is on the
// roster of eventRef.
func (s *Service) belongs(ctx context.Context, participantRef, eventRef string) error {
	if participantRef == "" || eventRef == "" {
		return ErrInvalidRef
	}
	p, err := s.roster.ResolveParticipant(ctx, participantRef)
	if err != nil {
		return err
	}
	if p.EventRef != eventRef {
		return repository.ErrParticipantNotFound
	}
	return nil
}

// resolve loads the participant and checks it belongs to eventRef.  A
// credential whose participant moved or was deleted is revoked, so scans
// report NotFound; an operator typing a reference from another event gets
// EventMismatch.
func (s *Service) resolve(ctx context.Context, participantRef, eventRef string, method model.Method) (model.Participant, Outcome, bool) {
	p, err := s.roster.ResolveParticipant(ctx, participantRef)
	if errors.Is(err, repository.ErrParticipantNotFound) {
		return model.Participant{}, Outcome{Kind: OutcomeNotFound, Method: method, EventRef: eventRef}, false
	}
	if err != nil {
		return model.Participant{}, s.unavailable(ctx, err, method, nil), false
	}
	if p.EventRef != eventRef {
		kind := OutcomeEventMismatch
		if method == model.MethodScan {
			kind = OutcomeNotFound
		}
		return p, Outcome{Kind: kind, Method: method, Participant: &p, EventRef: p.EventRef}, false
	}
	return p, Outcome{}, true
}

// apply runs the transition for a and, when the guard fails, reads back the
// record so the caller can explain why.
func (s *Service) apply(ctx context.Context, a action, participantRef, eventRef string, method model.Method, now time.Time) (bool, model.CheckinRecord, error) {
	r := transitions[a]
	won, err := s.store.Transition(ctx, model.Transition{
		ParticipantRef: participantRef,
		EventRef:       eventRef,
		From:           r.from,
		To:             r.to,
		Method:         method,
		At:             now,
	})
	if err != nil {
		return false, model.CheckinRecord{}, err
	}
	rec, err := s.store.Get(ctx, participantRef, eventRef)
	if err != nil {
		if won {
			// the write is committed; report it even if the read-back failed
			return true, synthesize(participantRef, eventRef, r.to, method, now), nil
		}
		return false, model.CheckinRecord{}, err
	}
	if !won && allowed(a, rec.Status) {
		return false, rec, errLostRace
	}
	return won, rec, nil
}

func synthesize(participantRef, eventRef string, to model.Status, method model.Method, now time.Time) model.CheckinRecord {
	rec := model.CheckinRecord{ParticipantRef: participantRef, EventRef: eventRef, Status: to, UpdatedAt: now}
	if to == model.StatusCheckedIn {
		rec.Method = method
		rec.CheckedInAt = &now
	}
	return rec
}

func (s *Service) unavailable(ctx context.Context, err error, method model.Method, p *model.Participant) Outcome {
	s.log.WithError(err).WithField("station", stationFrom(ctx)).Error("check-in store unavailable")
	return Outcome{
		Kind:        OutcomeStoreUnavailable,
		Method:      method,
		Participant: p,
		Err:         fmt.Errorf("%w: %w", repository.ErrStoreUnavailable, err),
	}
}

func (s *Service) logOutcome(ctx context.Context, out Outcome) {
	fields := logrus.Fields{
		"station": stationFrom(ctx),
		"event":   out.EventRef,
		"outcome": string(out.Kind),
	}
	if out.Participant != nil {
		fields["participant"] = out.Participant.Ref
	}
	if out.Method != "" {
		fields["method"] = string(out.Method)
	}
	s.log.WithFields(fields).Info("check-in request handled")
}

func (s *Service) publishTransition(ctx context.Context, p model.Participant, to model.Status, method model.Method, at time.Time) {
	if s.events == nil {
		return
	}
	ev := queue.TransitionEvent{
		ID:             uuid.NewString(),
		ParticipantRef: p.Ref,
		EventRef:       p.EventRef,
		DisplayName:    p.DisplayName,
		Category:       p.Category,
		To:             string(to),
		Method:         string(method),
		Station:        stationFrom(ctx),
		OccurredAt:     at.Format(time.RFC3339Nano),
	}
	if err := s.events.PublishTransition(ctx, ev); err != nil {
		s.log.WithError(err).WithField("participant", p.Ref).Warn("publish transition failed")
	}
}

func (s *Service) publishRejection(ctx context.Context, c credential.Credential, stationEventRef string) {
	if s.events == nil {
		return
	}
	ev := queue.RejectionEvent{
		ID:                    uuid.NewString(),
		StationEventRef:       stationEventRef,
		ClaimedParticipantRef: c.ParticipantRef,
		ClaimedEventRef:       c.EventRef,
		Reason:                credential.ErrChecksumMismatch.Error(),
		Station:               stationFrom(ctx),
		OccurredAt:            s.Now().Format(time.RFC3339Nano),
	}
	if err := s.events.PublishRejection(ctx, ev); err != nil {
		s.log.WithError(err).Warn("publish rejection failed")
	}
}
