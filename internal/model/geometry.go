// Package model defines data structures for the command interpreter.
package model

import "fmt"

// Point3D is a position in model space.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vector3D is a displacement or dimension triple in model space.
type Vector3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Origin is the model-space origin.
var Origin = Point3D{}

// Add returns the point translated by v.
func (p Point3D) Add(v Vector3D) Point3D {
	return Point3D{X: p.X + v.X, Y: p.Y + v.Y, Z: p.Z + v.Z}
}

func (p Point3D) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

func (v Vector3D) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}
