package project

import "errors"

var (
	// ErrDuplicateName marks an Add or Rename colliding with an
	// existing plot name.
	ErrDuplicateName = errors.New("duplicate plot name")

	// ErrUnknownPlot marks a name not present in the project.
	ErrUnknownPlot = errors.New("unknown plot")

	// ErrNoFigure marks an export of a plot without an exportable
	// figure.
	ErrNoFigure = errors.New("no exportable figure")

	// ErrBadProjectFile marks a saved project that cannot be decoded.
	ErrBadProjectFile = errors.New("bad project file")
)
