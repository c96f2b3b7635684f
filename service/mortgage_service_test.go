package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mortgage-calculator/domain"
	"mortgage-calculator/repository"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func TestCalculate_WithInterest(t *testing.T) {
	service := NewMortgageService(repository.NewMemoryCache(), time.Minute)

	result, err := service.Calculate(context.Background(), loan("300000", "5", 30), startDate)
	require.NoError(t, err)

	assertMoney(t, "1610.46", result.MonthlyPayment)
	assert.Equal(t, 360, result.Summary.NumberOfPayments)
	assertMoney(t, "279769.69", result.Summary.TotalInterest)
	assertMoney(t, "579769.69", result.Summary.TotalPayment)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.August, Day: 1}, result.Summary.FirstPaymentDate)
}

func TestCalculate_ZeroInterest(t *testing.T) {
	service := NewMortgageService(nil, 0)

	result, err := service.Calculate(context.Background(), loan("1200", "0", 1), startDate)
	require.NoError(t, err)

	assertMoney(t, "100", result.MonthlyPayment)
	assert.True(t, result.Summary.TotalInterest.IsZero())
}

func TestCalculate_InvalidAmountSkipsCache(t *testing.T) {
	cache := &MockCache{}
	service := NewMortgageService(cache, time.Minute)

	_, err := service.Calculate(context.Background(), loan("0", "10", 1), startDate)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSchedule_CachesBuiltSchedule(t *testing.T) {
	cache := repository.NewMemoryCache()
	service := NewMortgageService(cache, time.Minute)
	ctx := context.Background()

	first, err := service.Schedule(ctx, loan("200000", "3.5", 20), startDate)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	// same loan written differently hits the same entry
	second, err := service.Schedule(ctx, loan("200000.00", "3.50", 20), startDate)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].PaymentDate, second[i].PaymentDate)
		assert.True(t, first[i].ScheduledPayment.Equal(second[i].ScheduledPayment))
		assert.True(t, first[i].EndingBalance.Equal(second[i].EndingBalance))
	}
}

func TestSchedule_CachedScheduleKeepsSubCentAmounts(t *testing.T) {
	service := NewMortgageService(repository.NewMemoryCache(), time.Minute)
	ctx := context.Background()
	req := loan("1000.005", "12", 1)

	fresh, err := service.Schedule(ctx, req, startDate)
	require.NoError(t, err)
	cached, err := service.Schedule(ctx, req, startDate)
	require.NoError(t, err)

	require.Len(t, cached, len(fresh))
	for i := range fresh {
		assert.Equal(t, fresh[i].PaymentDate, cached[i].PaymentDate)
		for _, pair := range [][2]decimal.Decimal{
			{fresh[i].BeginningBalance, cached[i].BeginningBalance},
			{fresh[i].ScheduledPayment, cached[i].ScheduledPayment},
			{fresh[i].PrincipalPayment, cached[i].PrincipalPayment},
			{fresh[i].InterestPayment, cached[i].InterestPayment},
			{fresh[i].EndingBalance, cached[i].EndingBalance},
		} {
			assert.Equal(t, pair[0].String(), pair[1].String(), "month %d", i+1)
		}
	}
	assert.False(t, fresh[0].BeginningBalance.Equal(fresh[0].BeginningBalance.Round(2)), "principal keeps its sub-cent digit")
}

func TestScheduleCodec_RoundTrip(t *testing.T) {
	built, err := BuildAmortizationSchedule(loan("1000.005", "12", 1), startDate)
	require.NoError(t, err)

	raw, err := encodeSchedule(built)
	require.NoError(t, err)
	assert.Contains(t, raw, `"1000.005"`)

	decoded, err := decodeSchedule(raw)
	require.NoError(t, err)
	require.Len(t, decoded, len(built))
	assert.True(t, decoded[11].BeginningBalance.Equal(built[11].BeginningBalance))
	assert.True(t, decoded[11].ScheduledPayment.Equal(built[11].ScheduledPayment))
}

func TestSchedule_ServesCachedValue(t *testing.T) {
	req := loan("1000", "12", 1)
	built, err := BuildAmortizationSchedule(req, startDate)
	require.NoError(t, err)
	raw, err := encodeSchedule(built[:1])
	require.NoError(t, err)

	cache := &MockCache{}
	cache.On("Get", mock.Anything, scheduleCacheKey(req, startDate)).Return(raw, true, nil)
	service := NewMortgageService(cache, time.Minute)

	schedule, err := service.Schedule(context.Background(), req, startDate)
	require.NoError(t, err)

	assert.Len(t, schedule, 1, "cached value is returned as is")
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSchedule_CacheFailuresAreNotFatal(t *testing.T) {
	cache := &MockCache{}
	cache.On("Get", mock.Anything, mock.Anything).Return("", false, errors.New("redis down"))
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, time.Minute).Return(errors.New("redis down"))
	service := NewMortgageService(cache, time.Minute)

	schedule, err := service.Schedule(context.Background(), loan("1000", "12", 1), startDate)

	require.NoError(t, err)
	assert.Len(t, schedule, 12)
	cache.AssertExpectations(t)
}

func TestSchedule_CorruptCacheEntryIsRebuilt(t *testing.T) {
	cache := &MockCache{}
	cache.On("Get", mock.Anything, mock.Anything).Return("{not json", true, nil)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, time.Minute).Return(nil)
	service := NewMortgageService(cache, time.Minute)

	schedule, err := service.Schedule(context.Background(), loan("1000", "12", 1), startDate)

	require.NoError(t, err)
	assert.Len(t, schedule, 12)
	cache.AssertExpectations(t)
}

func TestSchedule_DefaultStartDateUsesClock(t *testing.T) {
	service := NewMortgageService(nil, 0)
	service.now = func() time.Time { return time.Date(2025, time.January, 31, 9, 0, 0, 0, time.UTC) }

	schedule, err := service.Schedule(context.Background(), loan("1000", "12", 1), civil.Date{})
	require.NoError(t, err)

	assert.Equal(t, civil.Date{Year: 2025, Month: time.February, Day: 28}, schedule[0].PaymentDate)
}

func TestScheduleCacheKey(t *testing.T) {
	a := scheduleCacheKey(loan("1000", "5", 10), startDate)
	b := scheduleCacheKey(loan("1000.0", "5.00", 10), startDate)
	c := scheduleCacheKey(loan("1000", "5", 20), startDate)
	d := scheduleCacheKey(loan("1000", "5", 10), civil.Date{Year: 2024, Month: time.August, Day: 1})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Contains(t, a, "schedule:")
}
