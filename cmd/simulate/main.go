package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hackgods/vet-consult-scheduling/internal/logging"
)

type SimConfig struct {
	APIBaseURL   string
	FixturePath  string
	Duration     time.Duration
	Workers      int
	Days         int
	BookingRatio float64
	ConfirmRatio float64
	ReadRatio    float64
}

// Person and Fixture mirror what cmd/seed writes.
type Person struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Role  string    `json:"role"`
	Token string    `json:"token"`
}

type Fixture struct {
	Vets   []Person `json:"vets"`
	Owners []Person `json:"owners"`
}

type Slot struct {
	Vet   int
	Date  string
	Start string
	End   string
}

func (s Slot) key(vets []Person) string {
	return vets[s.Vet].ID.String() + "|" + s.Date + "|" + s.Start
}

type created struct {
	ID  uuid.UUID
	Vet int
}

type DataPool struct {
	Fixture Fixture
	Slots   []Slot

	mu       sync.RWMutex
	bookings []created
	winners  map[string]int // slot key -> successful creates
}

func (dp *DataPool) AddBooking(slot Slot, id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.bookings = append(dp.bookings, created{ID: id, Vet: slot.Vet})
	dp.winners[slot.key(dp.Fixture.Vets)]++
}

func (dp *DataPool) RandomBooking(rng *rand.Rand) (created, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.bookings) == 0 {
		return created{}, false
	}
	return dp.bookings[rng.Intn(len(dp.bookings))], true
}

// DoubleBooked lists slots that accepted more than one booking.
func (dp *DataPool) DoubleBooked() []string {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	var out []string
	for k, n := range dp.winners {
		if n > 1 {
			out = append(out, fmt.Sprintf("%s (%d)", k, n))
		}
	}
	sort.Strings(out)
	return out
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min95(len(latencies))]
	return avg, min, max, p50, p95
}

func min95(n int) int {
	i := n * 95 / 100
	if i >= n {
		i = n - 1
	}
	return i
}

type Metrics struct {
	Booking      OperationMetrics
	Confirm      OperationMetrics
	Availability OperationMetrics
	List         OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	logger  zerolog.Logger
}

func main() {
	_ = godotenv.Load()
	logger := logging.New("simulate", getEnv("LOG_LEVEL", "info"), "dev")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("booking", cfg.BookingRatio).
		Float64("confirm", cfg.ConfirmRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	pool, err := sim.loadDataPool(ctx)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("load data pool")
	}
	sim.pool = pool
	logger.Info().
		Int("vets", len(pool.Fixture.Vets)).
		Int("owners", len(pool.Fixture.Owners)).
		Int("open_slots", len(pool.Slots)).
		Msg("data pool loaded")

	sim.Run()
	sim.PrintReport()

	if len(pool.DoubleBooked()) > 0 {
		os.Exit(1)
	}
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		FixturePath:  getEnv("SIM_FIXTURE", "seed.json"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		Days:         getInt("SIM_DAYS", 7),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.5),
		ConfirmRatio: getFloat("SIM_CONFIRM_RATIO", 0.2),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
	}

	total := cfg.BookingRatio + cfg.ConfirmRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ConfirmRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Days <= 0 {
		return fmt.Errorf("SIM_DAYS must be > 0")
	}
	return nil
}

// loadDataPool reads the seed fixture and collects every open slot over the
// next Days days from the availability endpoint.
func (s *Simulator) loadDataPool(ctx context.Context) (*DataPool, error) {
	raw, err := os.ReadFile(s.config.FixturePath)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	pool := &DataPool{winners: make(map[string]int)}
	if err := json.Unmarshal(raw, &pool.Fixture); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if len(pool.Fixture.Vets) == 0 || len(pool.Fixture.Owners) == 0 {
		return nil, fmt.Errorf("fixture needs vets and owners")
	}

	reader := pool.Fixture.Owners[0].Token
	today := time.Now()
	for vi, vet := range pool.Fixture.Vets {
		for d := 1; d <= s.config.Days; d++ {
			date := today.AddDate(0, 0, d).Format("2006-01-02")
			var avail struct {
				Slots []struct {
					StartTime   string `json:"start_time"`
					EndTime     string `json:"end_time"`
					IsAvailable bool   `json:"is_available"`
				} `json:"slots"`
			}
			status, err := s.call(ctx, http.MethodGet,
				fmt.Sprintf("/vets/%s/availability?date=%s", vet.ID, date), reader, nil, &avail)
			if err != nil {
				return nil, err
			}
			if status != http.StatusOK {
				return nil, fmt.Errorf("availability for %s: status %d", vet.ID, status)
			}
			for _, sl := range avail.Slots {
				if sl.IsAvailable {
					pool.Slots = append(pool.Slots, Slot{Vet: vi, Date: date, Start: sl.StartTime, End: sl.EndTime})
				}
			}
		}
	}
	if len(pool.Slots) == 0 {
		return nil, fmt.Errorf("no open slots found")
	}
	return pool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := rng.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBooking(ctx, rng)
		case r < s.config.BookingRatio+s.config.ConfirmRatio:
			s.doConfirm(ctx, rng)
		case rng.Intn(2) == 0:
			s.doAvailability(ctx, rng)
		default:
			s.doList(ctx, rng)
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	slot := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
	owner := s.pool.Fixture.Owners[rng.Intn(len(s.pool.Fixture.Owners))]

	body := map[string]string{
		"veterinarian_id":  s.pool.Fixture.Vets[slot.Vet].ID.String(),
		"scheduled_date":   slot.Date,
		"time_slot_start":  slot.Start,
		"time_slot_end":    slot.End,
		"reason_for_visit": gofakeit.Sentence(6),
		"priority":         gofakeit.RandomString([]string{"low", "normal", "high", "urgent"}),
	}

	start := time.Now()
	var resp struct {
		ID uuid.UUID `json:"id"`
	}
	status, err := s.call(ctx, http.MethodPost, "/bookings", owner.Token, body, &resp)
	latency := time.Since(start)

	success := err == nil && status == http.StatusCreated
	if success && resp.ID != uuid.Nil {
		s.pool.AddBooking(slot, resp.ID)
	}
	s.metrics.Booking.Record(latency, success, err == nil && status == http.StatusConflict)
}

func (s *Simulator) doConfirm(ctx context.Context, rng *rand.Rand) {
	b, ok := s.pool.RandomBooking(rng)
	if !ok {
		return
	}
	vet := s.pool.Fixture.Vets[b.Vet]

	start := time.Now()
	status, err := s.call(ctx, http.MethodPost, "/bookings/"+b.ID.String()+"/confirm", vet.Token, nil, nil)
	latency := time.Since(start)

	// a second confirm of the same booking is a 400, not a failure of the system
	s.metrics.Confirm.Record(latency, err == nil && status == http.StatusOK,
		err == nil && (status == http.StatusBadRequest || status == http.StatusConflict))
}

func (s *Simulator) doAvailability(ctx context.Context, rng *rand.Rand) {
	slot := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
	owner := s.pool.Fixture.Owners[rng.Intn(len(s.pool.Fixture.Owners))]

	start := time.Now()
	status, err := s.call(ctx, http.MethodGet,
		fmt.Sprintf("/vets/%s/availability?date=%s", s.pool.Fixture.Vets[slot.Vet].ID, slot.Date), owner.Token, nil, nil)
	s.metrics.Availability.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doList(ctx context.Context, rng *rand.Rand) {
	vet := s.pool.Fixture.Vets[rng.Intn(len(s.pool.Fixture.Vets))]

	start := time.Now()
	status, err := s.call(ctx, http.MethodGet, "/bookings?limit=20&offset=0", vet.Token, nil, nil)
	s.metrics.List.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) call(ctx context.Context, method, path, token string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Confirm", &s.metrics.Confirm)
	printOperationReport("Availability", &s.metrics.Availability)
	printOperationReport("List bookings", &s.metrics.List)

	if dup := s.pool.DoubleBooked(); len(dup) > 0 {
		fmt.Printf("DOUBLE BOOKED SLOTS: %d\n", len(dup))
		for _, k := range dup {
			fmt.Printf("  %s\n", k)
		}
		return
	}
	fmt.Println("Slot exclusivity held: no slot accepted more than one booking")
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
