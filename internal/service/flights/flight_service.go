package flights

import (
	"context"
	"time"

	"github.com/skyfare/airbooking/internal/domain"
	"github.com/skyfare/airbooking/internal/repository"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Seats(ctx context.Context, flightID int64) ([]domain.Seat, error)
	CitySuggestions(ctx context.Context, field repository.CityField, query string, showAll bool) ([]string, error)
}

type Cache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	GetCities(ctx context.Context, field, query string) ([]string, error)
	SetCities(ctx context.Context, field, query string, cities []string) error
}

type FlightService struct {
	repo  repository.FlightRepository
	cache Cache
	now   func() time.Time
}

type Option func(*FlightService)

func WithClock(now func() time.Time) Option {
	return func(s *FlightService) {
		s.now = now
	}
}

func NewFlightService(repo repository.FlightRepository, cache Cache, opts ...Option) *FlightService {
	s := &FlightService{repo: repo, cache: cache, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns active flights that have not yet departed, serving from the
// cache when it is warm.
func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) Seats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	return s.repo.Seats(ctx, flightID)
}

// CitySuggestions serves origin/destination autocomplete. Queries shorter
// than two characters return nothing unless showAll is set.
func (s *FlightService) CitySuggestions(ctx context.Context, field repository.CityField, query string, showAll bool) ([]string, error) {
	limit := 10
	if showAll || query == "" {
		query = ""
		limit = 20
	} else if len(query) < 2 {
		return []string{}, nil
	}

	if s.cache != nil {
		if cached, err := s.cache.GetCities(ctx, string(field), query); err == nil && cached != nil {
			return cached, nil
		}
	}

	cities, err := s.repo.Cities(ctx, field, query, limit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetCities(ctx, string(field), query, cities)
	}
	return cities, nil
}

var _ FlightUseCase = (*FlightService)(nil)
