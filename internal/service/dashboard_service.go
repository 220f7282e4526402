package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/metrics"
	"assembly-dashboard-be/internal/pkg/logger"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/repository/memory"
	"assembly-dashboard-be/pkg/dashboard/engine"
	"assembly-dashboard-be/pkg/dashboard/filter"
	"assembly-dashboard-be/pkg/dashboard/records"
	"assembly-dashboard-be/pkg/dashboard/reveal"
	"assembly-dashboard-be/pkg/dashboard/selection"
	"assembly-dashboard-be/pkg/events"
	"assembly-dashboard-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDashboardService interface {
	Create(ctx context.Context) (*dto.DashboardStateResponse, error)
	State(ctx context.Context, sessionID string) (*dto.DashboardStateResponse, error)
	Dispatch(ctx context.Context, sessionID string, req *dto.DispatchEventRequest) (*dto.DispatchEventResponse, error)
	// ReloadSessions refetches the known session list and repairs both selector groups.
	ReloadSessions(ctx context.Context, sessionID string) (*dto.DispatchEventResponse, error)
	// LoadView fetches one list view for the primary selection and returns its visible page.
	LoadView(ctx context.Context, sessionID string, view store.View) (*dto.ViewResponse, error)
	Close(ctx context.Context, sessionID string) error
}

type dashboardService struct {
	sessions   *memory.SessionRepository
	dispatcher *engine.Dispatcher
	machine    *selection.Machine
	recap      IRecapService
	publisher  IPublisherService
	composer   *filter.Composer
	pageSize   int
	logger     logger.ILogger
}

// NewDashboardService wires the service into the dispatcher: every applied event is counted
// and published on the event bus.
func NewDashboardService(
	sessions *memory.SessionRepository,
	dispatcher *engine.Dispatcher,
	machine *selection.Machine,
	recap IRecapService,
	publisher IPublisherService,
	pageSize int,
	log logger.ILogger,
) IDashboardService {
	if pageSize <= 0 {
		pageSize = reveal.DefaultPageSize
	}
	s := &dashboardService{
		sessions:   sessions,
		dispatcher: dispatcher,
		machine:    machine,
		recap:      recap,
		publisher:  publisher,
		composer:   filter.NewComposer(records.DefaultFields()),
		pageSize:   pageSize,
		logger:     log,
	}
	dispatcher.OnApplied = s.onApplied
	return s
}

func (s *dashboardService) onApplied(session *store.Session, ev engine.Event, out engine.Outcome) {
	metrics.EventApplied(string(ev.Kind()), out.Changed)
	s.publish(context.Background(), events.New(events.DashboardEventApplied, map[string]interface{}{
		"session_id": session.ID,
		"kind":       string(ev.Kind()),
		"outcome":    out,
		"dashboard":  session.Snapshot(),
	}))
}

func (s *dashboardService) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("DashboardService", "Failed to publish dashboard event", map[string]interface{}{
			"type":  ev.EventType(),
			"error": err.Error(),
		})
	}
}

// dispatchError maps engine errors onto HTTP statuses.
func dispatchError(err error) error {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		return serverutils.WithStatus(fiber.StatusNotFound, err)
	case errors.Is(err, engine.ErrStopped):
		return serverutils.WithStatus(fiber.StatusServiceUnavailable, err)
	case errors.Is(err, engine.ErrUnknownEvent), errors.Is(err, engine.ErrInvalidSide), errors.Is(err, store.ErrUnknownView), errors.Is(err, engine.ErrInvalidFilterField):
		return serverutils.WithStatus(fiber.StatusBadRequest, err)
	}
	return err
}

func (s *dashboardService) state(snap store.Snapshot) *dto.DashboardStateResponse {
	terms := s.machine.Resolver().Terms()
	options := make(map[selection.Side]dto.SelectorOptions, 2)
	for _, side := range []selection.Side{selection.Primary, selection.Secondary} {
		g := snap.Selection.Group(side)
		options[side] = dto.SelectorOptions{
			Terms:    slices.Clone(terms),
			Sessions: s.machine.Children(snap.Known, g.Term),
		}
	}
	return &dto.DashboardStateResponse{Dashboard: snap, Options: options}
}

func (s *dashboardService) Create(ctx context.Context) (*dto.DashboardStateResponse, error) {
	session := store.NewSession(uuid.NewString(), nil, s.machine, s.pageSize)
	session.Sync.OnDrop = func(from selection.Side) {
		metrics.SyncDropped()
		s.logger.Warn("DashboardService", "Dropped re-entrant selector sync", map[string]interface{}{
			"session_id": session.ID,
			"from":       from,
		})
	}
	s.sessions.Save(session)
	metrics.SessionOpened()

	s.publish(ctx, events.New(events.DashboardSessionCreated, map[string]interface{}{
		"session_id": session.ID,
	}))
	s.logger.Info("DashboardService", "Dashboard session created", map[string]interface{}{"session_id": session.ID})

	res, err := s.ReloadSessions(ctx, session.ID)
	if err != nil {
		// The dashboard stays usable with empty selectors; a later reload repairs it.
		s.logger.Warn("DashboardService", "Initial session list unavailable", map[string]interface{}{
			"session_id": session.ID,
			"error":      err.Error(),
		})
		return s.State(ctx, session.ID)
	}
	return &res.State, nil
}

func (s *dashboardService) State(ctx context.Context, sessionID string) (*dto.DashboardStateResponse, error) {
	snap, err := s.dispatcher.Do(ctx, sessionID, func(*store.Session) error { return nil })
	if err != nil {
		return nil, dispatchError(err)
	}
	return s.state(snap), nil
}

func (s *dashboardService) Dispatch(ctx context.Context, sessionID string, req *dto.DispatchEventRequest) (*dto.DispatchEventResponse, error) {
	if req.Kind.Internal() {
		return nil, serverutils.WithStatus(fiber.StatusBadRequest, fmt.Errorf("%w: %q", engine.ErrUnknownEvent, req.Kind))
	}
	ev, err := engine.Decode(req.Kind, req.Payload)
	if err != nil {
		return nil, serverutils.WithStatus(fiber.StatusBadRequest, err)
	}
	return s.apply(ctx, sessionID, ev)
}

func (s *dashboardService) apply(ctx context.Context, sessionID string, ev engine.Event) (*dto.DispatchEventResponse, error) {
	res, err := s.dispatcher.Dispatch(ctx, sessionID, ev)
	if err != nil {
		return nil, dispatchError(err)
	}
	return &dto.DispatchEventResponse{Outcome: res.Outcome, State: *s.state(res.Snapshot)}, nil
}

func (s *dashboardService) ReloadSessions(ctx context.Context, sessionID string) (*dto.DispatchEventResponse, error) {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return nil, dispatchError(fmt.Errorf("%w: %s", engine.ErrSessionNotFound, sessionID))
	}
	known, err := s.recap.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session list: %w", err)
	}
	return s.apply(ctx, sessionID, engine.SessionsLoaded{Known: known})
}

// viewRequest is what a view fetch needs from the session, read on the dispatcher goroutine.
type viewRequest struct {
	seq     uint64
	session int
}

// LoadView runs in three steps: issue a sequence number, fetch without holding the session,
// then apply the result only if no newer fetch of the same view has been applied meanwhile.
// Fetch failures are reported inside the response so other views keep rendering.
func (s *dashboardService) LoadView(ctx context.Context, sessionID string, view store.View) (*dto.ViewResponse, error) {
	if !view.Valid() {
		return nil, serverutils.WithStatus(fiber.StatusBadRequest, fmt.Errorf("%w: %q", store.ErrUnknownView, view))
	}
	field, ok := view.FilterField()
	if !ok {
		return nil, serverutils.WithStatus(fiber.StatusBadRequest, fmt.Errorf("%w: %q is not a list view", store.ErrUnknownView, view))
	}

	var req viewRequest
	if _, err := s.dispatcher.Do(ctx, sessionID, func(session *store.Session) error {
		req = viewRequest{
			seq:     session.Fetch.Begin(view),
			session: session.Selection.Primary.Session,
		}
		return nil
	}); err != nil {
		return nil, dispatchError(err)
	}

	rows, fetchErr := s.recap.Rows(ctx, view, req.session)

	res := &dto.ViewResponse{View: view, Session: req.session, Sequence: req.seq, Rows: []records.Record{}}
	if _, err := s.dispatcher.Do(ctx, sessionID, func(session *store.Session) error {
		if !session.Fetch.Accept(view, req.seq) {
			res.Stale = true
			return nil
		}
		if fetchErr != nil {
			res.Error = fetchErr.Error()
			return nil
		}
		filtered := s.composer.Apply(rows, session.Filter(view))
		shown := session.Reveal.Shown(string(view))
		res.Total = len(rows)
		res.Matched = len(filtered)
		res.Rows = reveal.Visible(filtered, shown)
		res.Shown = len(res.Rows)
		res.HasMore = len(filtered) > len(res.Rows)
		res.Options = s.composer.Values(rows, field)
		return nil
	}); err != nil {
		return nil, dispatchError(err)
	}

	switch {
	case res.Stale:
		metrics.StaleDiscarded(string(view))
		s.publish(ctx, events.New(events.DashboardStaleDiscarded, map[string]interface{}{
			"session_id": sessionID,
			"view":       string(view),
			"sequence":   req.seq,
		}))
	case res.Error != "":
		metrics.ViewFailed(string(view))
		s.logger.Warn("DashboardService", "View fetch failed", map[string]interface{}{
			"session_id": sessionID,
			"view":       view,
			"error":      res.Error,
		})
		s.publish(ctx, events.New(events.DashboardFetchFailed, map[string]interface{}{
			"session_id": sessionID,
			"view":       string(view),
			"error":      res.Error,
		}))
	}
	return res, nil
}

func (s *dashboardService) Close(ctx context.Context, sessionID string) error {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return dispatchError(fmt.Errorf("%w: %s", engine.ErrSessionNotFound, sessionID))
	}
	s.sessions.Delete(sessionID)
	s.logger.Info("DashboardService", "Dashboard session closed", map[string]interface{}{"session_id": sessionID})
	return nil
}
