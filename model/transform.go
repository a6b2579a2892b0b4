package model

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/robobridge/frankahwsim/urdf"
)

func identity4() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// originTransform converts a URDF origin pose into a homogeneous transform,
// R = Rz(yaw) * Ry(pitch) * Rx(roll) per the URDF fixed-axis convention.
func originTransform(p *urdf.Pose) (*mat.Dense, error) {
	xyz, err := p.ParseXYZ()
	if err != nil {
		return nil, err
	}
	rpy, err := p.ParseRPY()
	if err != nil {
		return nil, err
	}

	sr, cr := math.Sincos(rpy.X)
	sp, cp := math.Sincos(rpy.Y)
	sy, cy := math.Sincos(rpy.Z)

	m := identity4()
	m.Set(0, 0, cy*cp)
	m.Set(0, 1, cy*sp*sr-sy*cr)
	m.Set(0, 2, cy*sp*cr+sy*sr)
	m.Set(1, 0, sy*cp)
	m.Set(1, 1, sy*sp*sr+cy*cr)
	m.Set(1, 2, sy*sp*cr-cy*sr)
	m.Set(2, 0, -sp)
	m.Set(2, 1, cp*sr)
	m.Set(2, 2, cp*cr)
	m.Set(0, 3, xyz.X)
	m.Set(1, 3, xyz.Y)
	m.Set(2, 3, xyz.Z)
	return m, nil
}

// revoluteTransform is a rotation of theta about the given unit axis
// (Rodrigues' formula).
func revoluteTransform(axis r3.Vector, theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z

	m := identity4()
	m.Set(0, 0, t*x*x+c)
	m.Set(0, 1, t*x*y-s*z)
	m.Set(0, 2, t*x*z+s*y)
	m.Set(1, 0, t*x*y+s*z)
	m.Set(1, 1, t*y*y+c)
	m.Set(1, 2, t*y*z-s*x)
	m.Set(2, 0, t*x*z-s*y)
	m.Set(2, 1, t*y*z+s*x)
	m.Set(2, 2, t*z*z+c)
	return m
}

// prismaticTransform is a translation of d along the given unit axis.
func prismaticTransform(axis r3.Vector, d float64) *mat.Dense {
	m := identity4()
	m.Set(0, 3, axis.X*d)
	m.Set(1, 3, axis.Y*d)
	m.Set(2, 3, axis.Z*d)
	return m
}

// transformPoint applies a homogeneous transform to a point.
func transformPoint(t *mat.Dense, p r3.Vector) r3.Vector {
	return r3.Vector{
		X: t.At(0, 0)*p.X + t.At(0, 1)*p.Y + t.At(0, 2)*p.Z + t.At(0, 3),
		Y: t.At(1, 0)*p.X + t.At(1, 1)*p.Y + t.At(1, 2)*p.Z + t.At(1, 3),
		Z: t.At(2, 0)*p.X + t.At(2, 1)*p.Y + t.At(2, 2)*p.Z + t.At(2, 3),
	}
}
