package data

import "errors"

var (
	// ErrUnknownVariable is returned when a dataset has no variable of
	// the requested name.
	ErrUnknownVariable = errors.New("data: unknown variable")

	// ErrUnknownDimension is returned when a selection names a
	// dimension the array does not have.
	ErrUnknownDimension = errors.New("data: unknown dimension")

	// ErrNoCoordinate is returned when a nearest-value selection is
	// requested for a dimension without a coordinate.
	ErrNoCoordinate = errors.New("data: dimension has no coordinate")

	// ErrBadSelection is returned for selection values of an
	// unsupported type.
	ErrBadSelection = errors.New("data: bad selection value")

	// ErrShapeMismatch is returned when a variable's value count does
	// not match the product of its shape.
	ErrShapeMismatch = errors.New("data: values do not match shape")
)
