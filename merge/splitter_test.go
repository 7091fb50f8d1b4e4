package merge

import (
	"testing"

	"github.com/grailbio/bwmerge/bigwig"
	"github.com/stretchr/testify/assert"
)

func iv(start, end uint32, value float32) bigwig.Interval {
	return bigwig.Interval{Start: start, End: end, Value: value}
}

func TestSplitIdenticalRange(t *testing.T) {
	r := Split(iv(10, 20, 1), iv(10, 20, 2))
	assert.Equal(t, iv(10, 20, 3), r.Primary)
	assert.Nil(t, r.Second)
	assert.Nil(t, r.Third)
	assert.Nil(t, r.Overhang)
}

func TestSplitSameStartShorterThenLonger(t *testing.T) {
	// |--|
	// |---|
	r := Split(iv(0, 10, 1), iv(0, 15, 2))
	assert.Equal(t, iv(0, 10, 3), r.Primary)
	if assert.NotNil(t, r.Overhang) {
		assert.Equal(t, iv(10, 15, 2), *r.Overhang)
	}
}

func TestSplitSameStartLongerThenShorterZeroValue(t *testing.T) {
	// |---|
	// |--| (zero value: fully absorbed)
	r := Split(iv(0, 15, 5), iv(0, 10, 0))
	assert.Equal(t, iv(0, 15, 5), r.Primary)
	assert.Nil(t, r.Second)
	assert.Nil(t, r.Overhang)
}

func TestSplitSameStartLongerThenShorterNonZero(t *testing.T) {
	// |---|
	// |--|
	r := Split(iv(0, 15, 5), iv(0, 10, 2))
	assert.Equal(t, iv(0, 10, 7), r.Primary)
	assert.Equal(t, iv(10, 15, 5), *r.Second)
}

func TestSplitOneFirstSameEndZeroValue(t *testing.T) {
	// |---|
	//  |--| (zero value: absorbed, no output for two)
	r := Split(iv(0, 20, 3), iv(5, 20, 0))
	assert.Equal(t, iv(0, 20, 3), r.Primary)
	assert.Nil(t, r.Second)
}

func TestSplitOneFirstSameEndNonZero(t *testing.T) {
	// |---|
	//  |--|
	r := Split(iv(0, 20, 3), iv(5, 20, 1))
	assert.Equal(t, iv(0, 5, 3), r.Primary)
	assert.Equal(t, iv(5, 20, 4), *r.Second)
}

func TestSplitOneFirstBothZero(t *testing.T) {
	// |---|
	//  |---|  (both zero)
	r := Split(iv(0, 10, 0), iv(5, 20, 0))
	assert.Equal(t, iv(0, 10, 0), r.Primary)
	assert.Equal(t, iv(10, 20, 0), *r.Overhang)
	assert.Nil(t, r.Second)
}

func TestSplitOneFirstPartialOverlapBothNonZero(t *testing.T) {
	// |---|
	//  |---|
	r := Split(iv(0, 10, 1), iv(5, 20, 2))
	assert.Equal(t, iv(0, 5, 1), r.Primary)
	assert.Equal(t, iv(5, 10, 3), *r.Second)
	assert.Equal(t, iv(10, 20, 2), *r.Overhang)
}

func TestSplitOneFirstContainsTwoZeroValue(t *testing.T) {
	// |----|
	//  |--|  (zero: absorbed)
	r := Split(iv(0, 20, 4), iv(5, 10, 0))
	assert.Equal(t, iv(0, 20, 4), r.Primary)
	assert.Nil(t, r.Second)
	assert.Nil(t, r.Third)
}

func TestSplitOneFirstContainsTwoNonZero(t *testing.T) {
	// |----|
	//  |--|
	r := Split(iv(0, 20, 4), iv(5, 10, 1))
	assert.Equal(t, iv(0, 5, 4), r.Primary)
	assert.Equal(t, iv(5, 10, 5), *r.Second)
	assert.Equal(t, iv(10, 20, 4), *r.Third)
}

func TestSplitTwoFirstSameEndZeroValueOne(t *testing.T) {
	//  |--|
	// |---|  (one is zero)
	r := Split(iv(5, 20, 0), iv(0, 20, 3))
	assert.Equal(t, iv(0, 20, 3), r.Primary)
	assert.Nil(t, r.Second)
}

func TestSplitTwoFirstSameEndNonZero(t *testing.T) {
	//  |--|
	// |---|
	r := Split(iv(5, 20, 1), iv(0, 20, 3))
	assert.Equal(t, iv(0, 5, 3), r.Primary)
	assert.Equal(t, iv(5, 20, 4), *r.Second)
}

func TestSplitTwoFirstOneShorterEndsBeforeTwo(t *testing.T) {
	//  |--|
	// |----|
	r := Split(iv(5, 10, 1), iv(0, 20, 3))
	assert.Equal(t, iv(0, 5, 3), r.Primary)
	assert.Equal(t, iv(5, 10, 4), *r.Second)
	assert.Equal(t, iv(10, 20, 3), *r.Overhang)
}

func TestSplitTwoFirstOverlapBothZero(t *testing.T) {
	//  |---|
	// |---|  (both zero: folded into one zero interval)
	r := Split(iv(5, 20, 0), iv(0, 10, 0))
	assert.Equal(t, iv(0, 20, 0), r.Primary)
	assert.Nil(t, r.Second)
	assert.Nil(t, r.Third)
}

func TestSplitTwoFirstOverlapBothNonZero(t *testing.T) {
	//  |---|
	// |---|
	r := Split(iv(5, 20, 2), iv(0, 10, 1))
	assert.Equal(t, iv(0, 5, 1), r.Primary)
	assert.Equal(t, iv(5, 10, 3), *r.Second)
	assert.Equal(t, iv(10, 20, 2), *r.Third)
}

func TestSplitPanicsOnDisjointIntervals(t *testing.T) {
	assert.Panics(t, func() {
		Split(iv(0, 5, 1), iv(5, 10, 2))
	})
}
