package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/telensor/agenda/internal/booking/domain"
)

func iv(start, end int) domain.Interval {
	return domain.Interval{Start: start, End: end}
}

func TestNormalize_MergesOverlappingAndTouching(t *testing.T) {
	got := domain.Normalize([]domain.Interval{
		iv(600, 660),
		iv(540, 600),
		iv(650, 700),
		iv(720, 780),
	})

	assert.Equal(t, []domain.Interval{iv(540, 700), iv(720, 780)}, got)
}

func TestNormalize_DropsEmptyIntervals(t *testing.T) {
	got := domain.Normalize([]domain.Interval{
		iv(100, 100),
		iv(200, 150),
		iv(50, 60),
	})

	assert.Equal(t, []domain.Interval{iv(50, 60)}, got)
}

func TestNormalize_EmptyInput(t *testing.T) {
	assert.Nil(t, domain.Normalize(nil))
	assert.Nil(t, domain.Normalize([]domain.Interval{iv(10, 10)}))
}

func TestIntersect(t *testing.T) {
	a := []domain.Interval{iv(480, 720), iv(780, 900)}
	b := []domain.Interval{iv(600, 800)}

	got := domain.Intersect(a, b)

	assert.Equal(t, []domain.Interval{iv(600, 720), iv(780, 800)}, got)
}

func TestIntersect_Disjoint(t *testing.T) {
	a := []domain.Interval{iv(0, 100)}
	b := []domain.Interval{iv(100, 200)}

	assert.Nil(t, domain.Intersect(a, b))
}

func TestIntersect_UnsortedInputs(t *testing.T) {
	a := []domain.Interval{iv(700, 800), iv(500, 600)}
	b := []domain.Interval{iv(550, 750)}

	got := domain.Intersect(a, b)

	assert.Equal(t, []domain.Interval{iv(550, 600), iv(700, 750)}, got)
}

func TestSubtract_PunchesHoles(t *testing.T) {
	base := []domain.Interval{iv(480, 1020)}
	occupied := []domain.Interval{iv(600, 660), iv(780, 840)}

	got := domain.Subtract(base, occupied)

	assert.Equal(t, []domain.Interval{iv(480, 600), iv(660, 780), iv(840, 1020)}, got)
}

func TestSubtract_OccupationStraddlesEdge(t *testing.T) {
	base := []domain.Interval{iv(500, 700)}
	occupied := []domain.Interval{iv(450, 550), iv(650, 750)}

	got := domain.Subtract(base, occupied)

	assert.Equal(t, []domain.Interval{iv(550, 650)}, got)
}

func TestSubtract_FullyCovered(t *testing.T) {
	base := []domain.Interval{iv(500, 600)}
	occupied := []domain.Interval{iv(400, 700)}

	assert.Nil(t, domain.Subtract(base, occupied))
}

func TestSubtract_NothingOccupied(t *testing.T) {
	base := []domain.Interval{iv(500, 600)}

	assert.Equal(t, base, domain.Subtract(base, nil))
}

func TestPackSlots_StridesThroughRun(t *testing.T) {
	// 45 minute slots over a two hour run, service start bounded by the
	// window itself.
	got := domain.PackSlots(iv(480, 720), []domain.Interval{iv(480, 720)}, 45, 10)

	assert.Equal(t, []int{480, 525, 570, 615, 660}, got)
}

func TestPackSlots_PreBufferBeforeWindowOpen(t *testing.T) {
	// The slot may begin before the window as long as the service start
	// falls inside it.
	got := domain.PackSlots(iv(420, 1140), []domain.Interval{iv(418, 520)}, 90, 15)

	assert.Equal(t, []int{418}, got)
}

func TestPackSlots_ServiceStartMustPrecedeWindowEnd(t *testing.T) {
	// Service start at exactly window.End is excluded by the half-open
	// constraint.
	got := domain.PackSlots(iv(600, 630), []domain.Interval{iv(560, 800)}, 40, 10)

	assert.Equal(t, []int{590}, got)
	for _, start := range got {
		assert.Less(t, start+10, 630)
		assert.GreaterOrEqual(t, start+10, 600)
	}
}

func TestPackSlots_SlotMustFitInsideRun(t *testing.T) {
	got := domain.PackSlots(iv(0, 1440), []domain.Interval{iv(700, 740)}, 45, 0)

	assert.Nil(t, got)
}

func TestPackSlots_MultipleRunsRestartStride(t *testing.T) {
	free := []domain.Interval{iv(480, 545), iv(600, 690)}

	got := domain.PackSlots(iv(480, 720), free, 45, 0)

	assert.Equal(t, []int{480, 600, 645}, got)
}

func TestInterval_Overlaps(t *testing.T) {
	assert.True(t, iv(100, 200).Overlaps(iv(150, 250)))
	assert.True(t, iv(100, 200).Overlaps(iv(199, 300)))
	assert.False(t, iv(100, 200).Overlaps(iv(200, 300)))
	assert.False(t, iv(100, 200).Overlaps(iv(0, 100)))
}
