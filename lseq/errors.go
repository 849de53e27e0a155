package lseq

import "errors"

var (
	// ErrCapacity is returned when an allocation would exceed Config.MaxDepth.
	ErrCapacity = errors.New("lseq: identifier depth capacity exhausted")

	// ErrOrder is returned when Allocate is called with low >= high.
	ErrOrder = errors.New("lseq: bounds out of order")

	ErrConfig = errors.New("lseq: invalid config")
)
