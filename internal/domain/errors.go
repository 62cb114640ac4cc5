package domain

import "errors"

// Sentinel errors for the analysis pipeline and its caller surface. Stage
// errors wrap these with fmt.Errorf("...: %w", ...) so callers can branch
// with errors.Is while users see a stable, human-readable cause string.
var (
	// ErrShapeMismatch indicates the two input grids differ in dimensions or
	// geographic alignment. Fatal to the analysis.
	ErrShapeMismatch = errors.New("input grids are not co-registered")

	// ErrInvalidThresholds indicates the classification thresholds are not
	// strictly ascending. Caught at configuration load, before job creation.
	ErrInvalidThresholds = errors.New("severity thresholds must be strictly ascending")

	// ErrImageryUnavailable indicates the imagery collaborator could not
	// deliver a raster pair. Fatal to the requesting job only; never retried.
	ErrImageryUnavailable = errors.New("imagery unavailable")

	// ErrGeometryDegenerate indicates a traced patch boundary collapsed to
	// nothing. The patch is dropped and extraction continues.
	ErrGeometryDegenerate = errors.New("degenerate patch geometry")

	// ErrUnknownScenario indicates an unrecognized restoration scenario key.
	ErrUnknownScenario = errors.New("unknown restoration scenario")

	// ErrJobNotComplete indicates re-modeling was attempted on a job that has
	// not reached the COMPLETED state.
	ErrJobNotComplete = errors.New("analysis is not complete")

	// ErrJobNotFound indicates no analysis exists under the given identifier.
	ErrJobNotFound = errors.New("analysis not found")

	// ErrRegionNotFound indicates the geocoding collaborator could not
	// resolve a region name to a bounding box.
	ErrRegionNotFound = errors.New("region not found")
)
