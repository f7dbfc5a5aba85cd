package agreement

import "errors"

// Sentinel errors returned by the package. Callers match them with errors.Is.
var (
	// ErrInsufficientAnnotators is returned when fewer than two annotators are supplied.
	ErrInsufficientAnnotators = errors.New("at least two annotators are required")
	// ErrMisalignedInput is returned when sequences cannot be aligned item-to-item.
	ErrMisalignedInput = errors.New("annotator sequences are misaligned")
	// ErrDegenerateAgreement is returned when a coefficient denominator is zero.
	ErrDegenerateAgreement = errors.New("degenerate agreement")
	// ErrUnknownMetric is returned for an unsupported distance metric name.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrNoItems is returned when no item is usable for a coefficient.
	ErrNoItems = errors.New("no usable items")
	// ErrNoCategories is returned when every label is missing.
	ErrNoCategories = errors.New("no categories observed")
	// ErrUnknownCategory is returned when a label is absent from a caller-supplied order.
	ErrUnknownCategory = errors.New("label not in category order")
)
