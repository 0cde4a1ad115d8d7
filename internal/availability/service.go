// Package availability serves the court × time grid for one venue and date.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"quantumsport/internal/cart"
	"quantumsport/internal/session"
	"quantumsport/internal/slot"
	"quantumsport/internal/upstream"
)

var ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")

const defaultFetchTimeout = 10 * time.Second

type Source interface {
	ListResources(ctx context.Context, venueID string) ([]slot.Resource, error)
	ListAvailability(ctx context.Context, q upstream.AvailabilityQuery) ([]slot.Slot, error)
}

type SessionReader interface {
	Get(ctx context.Context, id, customerID string) (*session.Session, error)
}

type Service interface {
	Grid(ctx context.Context, venueID, date, sessionID, customerID string) (*GridView, error)
}

type GridView struct {
	VenueID string   `json:"venue_id"`
	Date    string   `json:"date"`
	Times   []string `json:"times"`
	Rows    []Row    `json:"rows"`
}

type Row struct {
	Resource slot.Resource `json:"resource"`
	Cells    []CellView    `json:"cells"`
}

type CellView struct {
	Time         string         `json:"time"`
	State        slot.CellState `json:"state"`
	Label        string         `json:"label"`
	Price        int64          `json:"price"`
	Interactable bool           `json:"interactable"`
	Selected     bool           `json:"selected"`
}

type service struct {
	source       Source
	sessions     SessionReader
	loc          *time.Location
	fetchTimeout time.Duration
	group        singleflight.Group
}

// NewService builds the grid service. fetchTimeout bounds each shared upstream fetch.
func NewService(source Source, sessions SessionReader, loc *time.Location, fetchTimeout time.Duration) Service {
	if loc == nil {
		loc = time.UTC
	}
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &service{
		source:       source,
		sessions:     sessions,
		loc:          loc,
		fetchTimeout: fetchTimeout,
	}
}

func (s *service) Grid(ctx context.Context, venueID, date, sessionID, customerID string) (*GridView, error) {
	if !slot.ValidDate(date) {
		return nil, ErrInvalidDate
	}

	var selected *cart.Cart
	if sessionID != "" {
		sess, err := s.sessions.Get(ctx, sessionID, customerID)
		if err != nil {
			return nil, err
		}
		selected = sess.Cart
	}

	var (
		resources []slot.Resource
		slots     []slot.Slot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.shared(gctx, "resources:"+venueID, func(fctx context.Context) (interface{}, error) {
			return s.source.ListResources(fctx, venueID)
		})
		if err != nil {
			return err
		}
		resources = v.([]slot.Resource)
		return nil
	})
	g.Go(func() error {
		key := fmt.Sprintf("availability:%s:%s", venueID, date)
		v, err := s.shared(gctx, key, func(fctx context.Context) (interface{}, error) {
			return s.source.ListAvailability(fctx, upstream.AvailabilityQuery{Date: date, VenueID: venueID})
		})
		if err != nil {
			return err
		}
		slots = v.([]slot.Slot)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	grid := slot.Resolve(date, slots, resources, s.loc)
	return buildView(venueID, grid, resources, selected), nil
}

// shared runs fetch once per key for every concurrent caller. The fetch does not inherit the
// cancellation of whichever caller started it, so one client going away cannot fail the others;
// each caller still stops waiting when its own ctx ends.
func (s *service) shared(ctx context.Context, key string, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return fetch(fctx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func buildView(venueID string, grid slot.Grid, resources []slot.Resource, selected *cart.Cart) *GridView {
	times := grid.Times()
	view := &GridView{
		VenueID: venueID,
		Date:    grid.Date,
		Times:   times,
		Rows:    make([]Row, 0, len(resources)),
	}

	for _, r := range resources {
		row := Row{Resource: r, Cells: make([]CellView, 0, len(times))}
		for _, hhmm := range times {
			cell := grid.Cell(r.ID, hhmm)
			cv := CellView{
				Time:         hhmm,
				State:        cell.State,
				Label:        cell.Label,
				Price:        cell.Price,
				Interactable: cell.Interactable(),
			}
			if selected != nil {
				cv.Selected = selected.HasBooking(cart.BookingKey{ResourceID: r.ID, Time: hhmm, Date: grid.Date})
			}
			row.Cells = append(row.Cells, cv)
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}
