package emu

import "fmt"

// StationID identifies a reservation station by its index in the pool's
// fixed declaration order.
type StationID uint8

// Tag is an optional producer identifier: either no producer, or the
// station that will supply a value. The zero value is NoTag.
type Tag struct {
	station StationID
	valid   bool
}

// NoTag is the absent producer.
var NoTag = Tag{}

// TagFor returns the tag naming station id.
func TagFor(id StationID) Tag {
	return Tag{station: id, valid: true}
}

// Valid returns true if the tag names a station.
func (t Tag) Valid() bool {
	return t.valid
}

// Station returns the named station and whether the tag is set.
func (t Tag) Station() (StationID, bool) {
	return t.station, t.valid
}

// String returns "#<id>" or "-" for NoTag.
func (t Tag) String() string {
	if !t.valid {
		return "-"
	}
	return fmt.Sprintf("#%d", t.station)
}
