package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mortgage-calculator/domain"
	"mortgage-calculator/logger"
	"mortgage-calculator/repository"
)

// MortgageService runs the amortization engine for request handlers and
// caches the schedules it builds.
type MortgageService struct {
	cache repository.CacheRepository
	ttl   time.Duration
	now   func() time.Time
}

// NewMortgageService creates a MortgageService. cache may be nil to disable
// caching.
func NewMortgageService(
	cache repository.CacheRepository,
	ttl time.Duration,
) *MortgageService {
	return &MortgageService{cache: cache, ttl: ttl, now: time.Now}
}

// Calculate returns the monthly payment and the totals of the schedule.
func (s *MortgageService) Calculate(
	ctx context.Context,
	req domain.LoanRequest,
	startDate civil.Date,
) (domain.MortgageResult, error) {

	payment, err := ComputeMonthlyPayment(req)
	if err != nil {
		return domain.MortgageResult{}, err
	}

	schedule, err := s.Schedule(ctx, req, startDate)
	if err != nil {
		return domain.MortgageResult{}, err
	}

	return domain.MortgageResult{
		MonthlyPayment: payment,
		Summary:        SummarizeSchedule(schedule),
	}, nil
}

// Schedule returns the amortization schedule, from the cache when an
// identical request was answered within the TTL.
func (s *MortgageService) Schedule(
	ctx context.Context,
	req domain.LoanRequest,
	startDate civil.Date,
) ([]domain.PaymentScheduleEntry, error) {

	if err := ValidateLoanRequest(req); err != nil {
		return nil, err
	}
	if startDate == (civil.Date{}) {
		startDate = civil.DateOf(s.now())
	}

	key := scheduleCacheKey(req, startDate)
	if schedule, ok := s.lookup(ctx, key); ok {
		logger.CtxDebug(ctx, "Schedule served from cache", zap.String("key", key))
		return schedule, nil
	}

	schedule, err := BuildAmortizationSchedule(req, startDate)
	if err != nil {
		return nil, err
	}

	// caching is best effort
	s.store(ctx, key, schedule)

	logger.CtxDebug(ctx, "Schedule built",
		zap.String("principal", req.Principal.String()),
		zap.String("annual_rate", req.AnnualInterestRatePercent.String()),
		zap.Int("term_years", req.TermYears),
		zap.Int("payments", len(schedule)),
	)
	return schedule, nil
}

func (s *MortgageService) lookup(ctx context.Context, key string) ([]domain.PaymentScheduleEntry, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.CtxWarn(ctx, "Schedule cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	schedule, err := decodeSchedule(raw)
	if err != nil {
		logger.CtxWarn(ctx, "Discarding undecodable cached schedule", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return schedule, true
}

func (s *MortgageService) store(ctx context.Context, key string, schedule []domain.PaymentScheduleEntry) {
	if s.cache == nil {
		return
	}

	data, err := encodeSchedule(schedule)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to encode schedule for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		logger.CtxWarn(ctx, "Schedule cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// scheduleCacheKey hashes the canonical form of the request. Decimal
// String() drops trailing zeros, so 1000 and 1000.00 share a key.
func scheduleCacheKey(req domain.LoanRequest, startDate civil.Date) string {
	canonical := fmt.Sprintf("%s|%s|%d|%s",
		req.Principal.String(),
		req.AnnualInterestRatePercent.String(),
		req.TermYears,
		startDate.String(),
	)
	return scheduleCacheKeyPrefix + strconv.FormatUint(xxhash.Sum64String(canonical), 16)
}

// cachedEntry keeps amounts at full precision. The API encoding of
// PaymentScheduleEntry rounds to cents, which would make a cached schedule
// differ from a freshly built one when the principal has sub-cent digits.
type cachedEntry struct {
	Month            int             `json:"month"`
	PaymentDate      civil.Date      `json:"paymentDate"`
	BeginningBalance decimal.Decimal `json:"beginningBalance"`
	ScheduledPayment decimal.Decimal `json:"scheduledPayment"`
	PrincipalPayment decimal.Decimal `json:"principalPayment"`
	InterestPayment  decimal.Decimal `json:"interestPayment"`
	EndingBalance    decimal.Decimal `json:"endingBalance"`
}

func encodeSchedule(schedule []domain.PaymentScheduleEntry) (string, error) {
	entries := make([]cachedEntry, len(schedule))
	for i, e := range schedule {
		entries[i] = cachedEntry(e)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeSchedule(raw string) ([]domain.PaymentScheduleEntry, error) {
	var entries []cachedEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, err
	}
	schedule := make([]domain.PaymentScheduleEntry, len(entries))
	for i, e := range entries {
		schedule[i] = domain.PaymentScheduleEntry(e)
	}
	return schedule, nil
}
