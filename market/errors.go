package market

import "errors"

var (
	ErrDataAlignment       = errors.New("data alignment")
	ErrEmptyDataset        = errors.New("empty dataset")
	ErrOutOfRange          = errors.New("cursor position out of range")
	ErrDataExhausted       = errors.New("no more data")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrDuplicateFeature    = errors.New("feature already exists")
	ErrMisalignedFeature   = errors.New("feature is not aligned with the dataset")
	ErrUnknownSymbol       = errors.New("unknown symbol")
	ErrUnknownColumn       = errors.New("unknown column")
	ErrMissingValue        = errors.New("missing value")
)
