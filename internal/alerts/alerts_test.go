package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func makeAlert(alertType AlertType, target string, freq Frequency) *PriceAlert {
	return &PriceAlert{
		ID:           "alert_test",
		Email:        "demo@example.com",
		CryptoSymbol: "BTC",
		Price:        target,
		AlertType:    alertType,
		Frequency:    freq,
		Active:       true,
		CreatedAt:    time.Now(),
	}
}

func TestShouldFire_Above(t *testing.T) {
	a := makeAlert(AlertAbove, "90000", FrequencyOnce)

	assert.False(t, a.ShouldFire(89999, time.Now()))
	assert.False(t, a.ShouldFire(90000, time.Now()))
	assert.True(t, a.ShouldFire(90001, time.Now()))
}

func TestShouldFire_Below(t *testing.T) {
	a := makeAlert(AlertBelow, "2000", FrequencyOnce)

	assert.False(t, a.ShouldFire(2001, time.Now()))
	assert.False(t, a.ShouldFire(2000, time.Now()))
	assert.True(t, a.ShouldFire(1999, time.Now()))
}

func TestShouldFire_InactiveNeverFires(t *testing.T) {
	a := makeAlert(AlertAbove, "100", FrequencyAlways)
	a.Active = false

	assert.False(t, a.ShouldFire(200, time.Now()))
}

func TestShouldFire_ZeroPriceNeverFires(t *testing.T) {
	a := makeAlert(AlertBelow, "2000", FrequencyAlways)

	assert.False(t, a.ShouldFire(0, time.Now()))
}

func TestShouldFire_MalformedTarget(t *testing.T) {
	a := makeAlert(AlertAbove, "not-a-number", FrequencyAlways)

	assert.False(t, a.ShouldFire(100, time.Now()))
}

func TestShouldFire_DailyThrottle(t *testing.T) {
	a := makeAlert(AlertAbove, "100", FrequencyDaily)
	now := time.Now()

	assert.True(t, a.ShouldFire(200, now))

	recent := now.Add(-time.Hour)
	a.LastFiredAt = &recent
	assert.False(t, a.ShouldFire(200, now))

	yesterday := now.Add(-25 * time.Hour)
	a.LastFiredAt = &yesterday
	assert.True(t, a.ShouldFire(200, now))
}

func TestShouldFire_AlwaysIgnoresLastFired(t *testing.T) {
	a := makeAlert(AlertAbove, "100", FrequencyAlways)
	recent := time.Now().Add(-time.Minute)
	a.LastFiredAt = &recent

	assert.True(t, a.ShouldFire(200, time.Now()))
}

func TestTargetPrice(t *testing.T) {
	a := makeAlert(AlertAbove, "90000", FrequencyOnce)
	target, ok := a.TargetPrice()
	assert.True(t, ok)
	assert.Equal(t, 90000.0, target)

	a.Price = "-5"
	_, ok = a.TargetPrice()
	assert.False(t, ok)
}
