package domain

import "sort"

// Interval is a half-open minute range [Start, End) on the continuous axis
// anchored at the base midnight of a search. Offsets past 1440 address the
// following day.
type Interval struct {
	Start int
	End   int
}

// Empty reports whether the interval contains no minutes.
func (iv Interval) Empty() bool { return iv.End <= iv.Start }

// Length returns the number of minutes covered.
func (iv Interval) Length() int {
	if iv.Empty() {
		return 0
	}
	return iv.End - iv.Start
}

// Overlaps reports whether two half-open intervals share at least one minute.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && iv.End > other.Start
}

// Clamp returns the portion of iv inside bounds.
func (iv Interval) Clamp(bounds Interval) Interval {
	out := Interval{Start: max(iv.Start, bounds.Start), End: min(iv.End, bounds.End)}
	if out.Empty() {
		return Interval{}
	}
	return out
}

// Normalize sorts a list of intervals and merges overlapping or touching
// runs. Two intervals [a,b) and [c,d) merge iff c <= b. Empty intervals are
// dropped. The input is not mutated.
func Normalize(list []Interval) []Interval {
	in := make([]Interval, 0, len(list))
	for _, iv := range list {
		if !iv.Empty() {
			in = append(in, iv)
		}
	}
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool {
		if in[i].Start != in[j].Start {
			return in[i].Start < in[j].Start
		}
		return in[i].End < in[j].End
	})
	merged := make([]Interval, 0, len(in))
	cur := in[0]
	for _, iv := range in[1:] {
		if iv.Start <= cur.End {
			if iv.End > cur.End {
				cur.End = iv.End
			}
			continue
		}
		merged = append(merged, cur)
		cur = iv
	}
	return append(merged, cur)
}

// Intersect returns the normalized intersection of two interval lists.
// Inputs may be unsorted or overlapping.
func Intersect(a, b []Interval) []Interval {
	an := Normalize(a)
	bn := Normalize(b)
	if len(an) == 0 || len(bn) == 0 {
		return nil
	}
	var out []Interval
	i, j := 0, 0
	for i < len(an) && j < len(bn) {
		s := max(an[i].Start, bn[j].Start)
		e := min(an[i].End, bn[j].End)
		if s < e {
			out = append(out, Interval{Start: s, End: e})
		}
		// advance whichever ends first
		if an[i].End < bn[j].End {
			i++
		} else {
			j++
		}
	}
	return out
}

// Subtract removes the union of occupied from base and returns the free
// remainder, normalized.
func Subtract(base, occupied []Interval) []Interval {
	bn := Normalize(base)
	if len(bn) == 0 {
		return nil
	}
	on := Normalize(occupied)
	var free []Interval
	j := 0
	for _, b := range bn {
		cursor := b.Start
		for j < len(on) && on[j].End <= b.Start {
			j++
		}
		for k := j; k < len(on) && on[k].Start < b.End; k++ {
			if on[k].Start > cursor {
				free = append(free, Interval{Start: cursor, End: min(on[k].Start, b.End)})
			}
			if on[k].End > cursor {
				cursor = max(cursor, on[k].End)
			}
		}
		if cursor < b.End {
			free = append(free, Interval{Start: cursor, End: b.End})
		}
	}
	return free
}

// PackSlots walks each free run in totalSlot strides and returns the
// pre-start minutes of every slot that fits. A slot is valid when the whole
// buffered range [start, start+totalSlot) lies inside one free run and the
// service start (start + bufferBefore) falls inside the start-constraint
// window [window.Start, window.End).
func PackSlots(window Interval, free []Interval, totalSlot, bufferBefore int) []int {
	if len(free) == 0 || totalSlot <= 0 {
		return nil
	}
	var starts []int
	for _, run := range free {
		start := max(run.Start, window.Start-bufferBefore)
		for start+totalSlot <= run.End {
			serviceStart := start + bufferBefore
			if window.Start <= serviceStart && serviceStart < window.End {
				starts = append(starts, start)
			}
			start += totalSlot
		}
	}
	return starts
}
