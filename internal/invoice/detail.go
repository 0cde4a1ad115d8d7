package invoice

import (
	"encoding/json"
	"fmt"
)

type Category string

const (
	CategoryCourt     Category = "court"
	CategoryCoach     Category = "coach"
	CategoryBallboy   Category = "ballboy"
	CategoryInventory Category = "inventory"
)

// Detail is one line of a booking invoice. The concrete types below are the only
// implementations.
type Detail interface {
	Category() Category
	Amount() int64
	validate() error
}

type CourtDetail struct {
	CourtID   string `json:"court_id"`
	CourtName string `json:"court_name"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	Price     int64  `json:"price"`
}

type CoachDetail struct {
	CoachID   string `json:"coach_id"`
	CoachName string `json:"coach_name"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	Price     int64  `json:"price"`
}

type BallboyDetail struct {
	BallboyID   string `json:"ballboy_id"`
	BallboyName string `json:"ballboy_name"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	Price       int64  `json:"price"`
}

type InventoryDetail struct {
	InventoryID string `json:"inventory_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Price       int64  `json:"price"`
}

func (CourtDetail) Category() Category     { return CategoryCourt }
func (CoachDetail) Category() Category     { return CategoryCoach }
func (BallboyDetail) Category() Category   { return CategoryBallboy }
func (InventoryDetail) Category() Category { return CategoryInventory }

func (d CourtDetail) Amount() int64     { return d.Price }
func (d CoachDetail) Amount() int64     { return d.Price }
func (d BallboyDetail) Amount() int64   { return d.Price }
func (d InventoryDetail) Amount() int64 { return d.Price }

func (d CourtDetail) validate() error {
	return requireTimed(CategoryCourt, d.CourtID, d.Date, d.StartTime, d.Price)
}

func (d CoachDetail) validate() error {
	return requireTimed(CategoryCoach, d.CoachID, d.Date, d.StartTime, d.Price)
}

func (d BallboyDetail) validate() error {
	return requireTimed(CategoryBallboy, d.BallboyID, d.Date, d.StartTime, d.Price)
}

func (d InventoryDetail) validate() error {
	switch {
	case d.InventoryID == "":
		return fmt.Errorf("%w: inventory line without id", ErrMalformedDetail)
	case d.Quantity <= 0:
		return fmt.Errorf("%w: inventory %s quantity %d", ErrMalformedDetail, d.InventoryID, d.Quantity)
	case d.Price < 0 || d.UnitPrice < 0:
		return fmt.Errorf("%w: inventory %s negative price", ErrMalformedDetail, d.InventoryID)
	}
	return nil
}

func requireTimed(cat Category, id, date, start string, price int64) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: %s line without id", ErrMalformedDetail, cat)
	case date == "" || start == "":
		return fmt.Errorf("%w: %s %s without date or start time", ErrMalformedDetail, cat, id)
	case price < 0:
		return fmt.Errorf("%w: %s %s negative price", ErrMalformedDetail, cat, id)
	}
	return nil
}

// DecodeDetail reads one tagged detail object. The "type" field selects the variant and
// anything else is rejected.
func DecodeDetail(raw json.RawMessage) (Detail, error) {
	var tag struct {
		Type Category `json:"type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDetail, err)
	}

	var (
		d   Detail
		err error
	)
	switch tag.Type {
	case CategoryCourt:
		var v CourtDetail
		err = json.Unmarshal(raw, &v)
		d = v
	case CategoryCoach:
		var v CoachDetail
		err = json.Unmarshal(raw, &v)
		d = v
	case CategoryBallboy:
		var v BallboyDetail
		err = json.Unmarshal(raw, &v)
		d = v
	case CategoryInventory:
		var v InventoryDetail
		err = json.Unmarshal(raw, &v)
		d = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetail, tag.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDetail, tag.Type, err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func DecodeDetails(raws []json.RawMessage) ([]Detail, error) {
	out := make([]Detail, 0, len(raws))
	for i, raw := range raws {
		d, err := DecodeDetail(raw)
		if err != nil {
			return nil, fmt.Errorf("detail %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// MarshalDetail writes d with its "type" tag so DecodeDetail can read it back.
func MarshalDetail(d Detail) ([]byte, error) {
	var body any
	switch v := d.(type) {
	case CourtDetail:
		body = struct {
			Type Category `json:"type"`
			CourtDetail
		}{CategoryCourt, v}
	case CoachDetail:
		body = struct {
			Type Category `json:"type"`
			CoachDetail
		}{CategoryCoach, v}
	case BallboyDetail:
		body = struct {
			Type Category `json:"type"`
			BallboyDetail
		}{CategoryBallboy, v}
	case InventoryDetail:
		body = struct {
			Type Category `json:"type"`
			InventoryDetail
		}{CategoryInventory, v}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownDetail, d)
	}
	return json.Marshal(body)
}

// Summary totals invoice lines per category.
type Summary struct {
	Court     int64 `json:"court"`
	Coach     int64 `json:"coach"`
	Ballboy   int64 `json:"ballboy"`
	Inventory int64 `json:"inventory"`
	Total     int64 `json:"total"`
	Lines     int   `json:"lines"`
}

func Summarize(details []Detail) Summary {
	var s Summary
	for _, d := range details {
		switch v := d.(type) {
		case CourtDetail:
			s.Court += v.Price
		case CoachDetail:
			s.Coach += v.Price
		case BallboyDetail:
			s.Ballboy += v.Price
		case InventoryDetail:
			s.Inventory += v.Price
		}
		s.Total += d.Amount()
		s.Lines++
	}
	return s
}
