package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/telensor/agenda/internal/booking/domain"
)

func TestStartOfDayUTC_NormalizesZone(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*3600)
	local := time.Date(2025, 11, 7, 1, 30, 0, 0, zone) // 23:30 UTC on the 6th

	got := domain.StartOfDayUTC(local)

	assert.Equal(t, time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC), got)
}

func TestMinuteOf_CrossesMidnight(t *testing.T) {
	base := time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1410, domain.MinuteOf(base, time.Date(2025, 11, 6, 23, 30, 0, 0, time.UTC)))
	assert.Equal(t, 1500, domain.MinuteOf(base, time.Date(2025, 11, 7, 1, 0, 0, 0, time.UTC)))
}

func TestMinuteRange(t *testing.T) {
	base := time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC)
	start := time.Date(2025, 11, 6, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 6, 17, 0, 0, 0, time.UTC)

	assert.Equal(t, domain.Interval{Start: 540, End: 1020}, domain.MinuteRange(base, start, end))
}

func TestTimeAt_RoundTrips(t *testing.T) {
	base := time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC)

	at := domain.TimeAt(base, 1485)

	assert.Equal(t, time.Date(2025, 11, 7, 0, 45, 0, 0, time.UTC), at)
	assert.Equal(t, 1485, domain.MinuteOf(base, at))
}
