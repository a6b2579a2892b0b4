package franka

import "gonum.org/v1/gonum/mat"

// Mat4 expands a column-major flattened homogeneous transform into a dense
// matrix for composition.
func Mat4(v [16]float64) *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			m.Set(r, c, v[4*c+r])
		}
	}
	return m
}

// FlattenMat4 is the inverse of Mat4.
func FlattenMat4(m mat.Matrix) [16]float64 {
	var v [16]float64
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			v[4*c+r] = m.At(r, c)
		}
	}
	return v
}

// Mat3 expands a column-major flattened 3x3 matrix into a dense matrix.
func Mat3(v [9]float64) *mat.Dense {
	m := mat.NewDense(3, 3, nil)
	for c := 0; c < 3; c++ {
		for r := 0; r < 3; r++ {
			m.Set(r, c, v[3*c+r])
		}
	}
	return m
}

// FlattenMat3 is the inverse of Mat3.
func FlattenMat3(m mat.Matrix) [9]float64 {
	var v [9]float64
	for c := 0; c < 3; c++ {
		for r := 0; r < 3; r++ {
			v[3*c+r] = m.At(r, c)
		}
	}
	return v
}

// Identity4 is the flattened identity transform.
func Identity4() [16]float64 {
	return [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}
