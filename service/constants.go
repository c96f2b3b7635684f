package service

const (
	monthsPerYear = 12

	// Term comparison
	MaxComparedTerms           = 10
	PreferenceMinimizeInterest = "minimize_interest"
	PreferenceMinimizePayment  = "minimize_payment"
	PreferenceBalanced         = "balanced"

	scheduleCacheKeyPrefix = "schedule:"
)

// DefaultComparedTerms are the terms offered by the mortgage form.
var DefaultComparedTerms = []int{10, 20, 30}
