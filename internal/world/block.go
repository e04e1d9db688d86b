package world

import (
	"github.com/go-gl/mathgl/mgl32"
)

// StateID addresses a block state in the registry. Zero is air.
type StateID uint16

const StateAir StateID = 0

// Direction identifies a face of a unit block.
type Direction int

const (
	DirectionNone Direction = iota - 1
	Down
	Up
	North
	South
	West
	East
)

// Directions lists the six faces in canonical order.
var Directions = [6]Direction{Down, Up, North, South, West, East}

var directionNames = [6]string{"down", "up", "north", "south", "west", "east"}

var directionOffsets = [6][3]int{
	{0, -1, 0},
	{0, 1, 0},
	{0, 0, -1},
	{0, 0, 1},
	{-1, 0, 0},
	{1, 0, 0},
}

// ParseDirection maps a JSON face/cullface name to a Direction.
// Unknown names yield DirectionNone.
func ParseDirection(s string) Direction {
	switch s {
	case "down", "bottom":
		return Down
	case "up", "top":
		return Up
	case "north":
		return North
	case "south":
		return South
	case "west":
		return West
	case "east":
		return East
	}
	return DirectionNone
}

func (d Direction) Valid() bool {
	return d >= Down && d <= East
}

func (d Direction) String() string {
	if !d.Valid() {
		return "none"
	}
	return directionNames[d]
}

// Offset returns the neighbour cell offset across this face.
func (d Direction) Offset() [3]int {
	if !d.Valid() {
		return [3]int{}
	}
	return directionOffsets[d]
}

// Normal returns the outward unit normal of the face.
func (d Direction) Normal() mgl32.Vec3 {
	o := d.Offset()
	return mgl32.Vec3{float32(o[0]), float32(o[1]), float32(o[2])}
}

// Axis returns 0, 1 or 2 for x, y, z. DirectionNone returns -1.
func (d Direction) Axis() int {
	switch d {
	case Down, Up:
		return 1
	case North, South:
		return 2
	case West, East:
		return 0
	}
	return -1
}

// Opposite returns the face pointing the other way.
func (d Direction) Opposite() Direction {
	if !d.Valid() {
		return DirectionNone
	}
	return d ^ 1
}

// DirectionFromNormal returns the direction whose normal is closest to n.
func DirectionFromNormal(n mgl32.Vec3) Direction {
	best := DirectionNone
	bestDot := float32(0.5)
	for _, d := range Directions {
		if dot := d.Normal().Dot(n); dot > bestDot {
			best, bestDot = d, dot
		}
	}
	return best
}
