package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skyfare/airbooking/config"
	"github.com/skyfare/airbooking/internal/cache"
	"github.com/skyfare/airbooking/internal/domain"
	"github.com/skyfare/airbooking/internal/repository"
)

var cities = []string{
	"Mumbai", "Delhi", "Bangalore", "Chennai", "Kolkata",
	"Hyderabad", "Pune", "Ahmedabad", "Jaipur", "Kochi",
}

var airlines = []struct {
	Code string
	Name string
}{
	{"AI", "Air India"},
	{"SG", "SpiceJet"},
	{"6E", "IndiGo"},
	{"UK", "Vistara"},
	{"G8", "GoAir"},
}

var aircraftTypes = []string{"Boeing 737", "Airbus A320", "Boeing 777", "Airbus A330"}

const seatLetters = "ABCDEF"

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	repo := repository.NewFlightRepository(pool)

	flightsCreated, seatsCreated := 0, 0
	for _, airline := range airlines {
		for i := 0; i < 3; i++ {
			origin := cities[rand.Intn(len(cities))]
			destination := origin
			for destination == origin {
				destination = cities[rand.Intn(len(cities))]
			}

			departure := time.Now().AddDate(0, 0, 1+rand.Intn(30)).
				Truncate(time.Hour).Add(time.Duration(6+rand.Intn(16)) * time.Hour)

			flight := &domain.Flight{
				Code:          fmt.Sprintf("%s%d", airline.Code, 100+rand.Intn(900)),
				AirlineCode:   airline.Code,
				Origin:        origin,
				Destination:   destination,
				DepartureTime: departure,
				ArrivalTime:   departure.Add(time.Duration(1+rand.Intn(4)) * time.Hour),
				PriceCents:    int64(2000+rand.Intn(8000)) * 100,
				AircraftType:  aircraftTypes[rand.Intn(len(aircraftTypes))],
				TotalSeats:    30,
				IsActive:      true,
			}
			if err := repo.Create(ctx, flight); err != nil {
				log.Printf("skip flight %s: %v", flight.Code, err)
				continue
			}
			flightsCreated++

			for row := 1; row <= 5; row++ {
				for _, letter := range strings.Split(seatLetters, "") {
					seat := &domain.Seat{
						FlightID:   flight.ID,
						SeatNumber: fmt.Sprintf("%d%s", row, letter),
						SeatClass:  domain.SeatClassEconomy,
						RowNumber:  row,
						SeatLetter: letter,
						IsWindow:   letter == "A" || letter == "F",
						IsAisle:    letter == "C" || letter == "D",
					}
					if err := repo.CreateSeat(ctx, seat); err != nil {
						log.Fatalf("create seat %s on %s: %v", seat.SeatNumber, flight.Code, err)
					}
					seatsCreated++
				}
			}
		}
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	if err := redisCache.InvalidateFlights(ctx); err != nil {
		log.Printf("invalidate flights cache: %v", err)
	}

	log.Printf("seeded %d flights with %d seats", flightsCreated, seatsCreated)
}
