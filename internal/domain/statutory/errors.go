package statutory

import "errors"

var (
	ErrBracketsUnordered   = errors.New("tax brackets must be ordered and contiguous")
	ErrBracketsNotOpenEnd  = errors.New("last tax bracket must have no upper bound")
	ErrInvalidContribution = errors.New("contribution scheme bounds are inconsistent")
)
