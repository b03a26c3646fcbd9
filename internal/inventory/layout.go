package inventory

import (
	"fmt"

	"github.com/Domenick1991/airreserve/internal/domain"
)

var allColumns = []string{"A", "B", "C", "D", "E", "F"}

// Layout describes a cabin: rows 1..FirstRows are FIRST, the rest SECOND.
type Layout struct {
	Rows      int      `yaml:"rows"`
	FirstRows int      `yaml:"first_rows"`
	Columns   []string `yaml:"columns"`
}

func DefaultLayout() Layout {
	return Layout{Rows: 30, FirstRows: 4, Columns: allColumns}
}

func (l Layout) Validate() error {
	if l.Rows <= 0 {
		return domain.Validation("LAYOUT_ROWS", "layout needs at least one row")
	}
	if l.FirstRows < 0 || l.FirstRows > l.Rows {
		return domain.Validation("LAYOUT_FIRST_ROWS", fmt.Sprintf("first-class rows must be within 0..%d", l.Rows))
	}
	if len(l.Columns) == 0 {
		return domain.Validation("LAYOUT_COLUMNS", "layout needs at least one column")
	}
	seen := make(map[string]bool, len(l.Columns))
	for _, c := range l.Columns {
		if !validColumn(c) || seen[c] {
			return domain.Validation("LAYOUT_COLUMNS", fmt.Sprintf("invalid or repeated column %q", c))
		}
		seen[c] = true
	}
	return nil
}

// GenerateSeats builds the AVAILABLE seat grid of a flight.
func GenerateSeats(flightID int64, l Layout) ([]domain.Seat, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	seats := make([]domain.Seat, 0, l.Rows*len(l.Columns))
	for row := 1; row <= l.Rows; row++ {
		class := domain.ClassSecond
		if row <= l.FirstRows {
			class = domain.ClassFirst
		}
		for _, col := range l.Columns {
			seats = append(seats, domain.Seat{
				FlightID: flightID,
				Row:      row,
				Column:   col,
				Class:    class,
				Status:   domain.SeatAvailable,
			})
		}
	}
	return seats, nil
}

func validColumn(c string) bool {
	for _, a := range allColumns {
		if a == c {
			return true
		}
	}
	return false
}
