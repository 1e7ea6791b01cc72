// Package currency converts receipt totals between currencies for display.
// Conversion happens only after pricing is computed; a failed conversion
// never touches receipt state.
package currency

import (
	"context"
	"errors"
)

var (
	// ErrConversionFailed signals the rate provider answered but the answer
	// could not be turned into a usable rate.
	ErrConversionFailed = errors.New("currency: conversion failed")
	// ErrConversionRequestFailed signals the rate provider could not be
	// reached or returned a non-success status.
	ErrConversionRequestFailed = errors.New("currency: conversion request failed")
)

// Converter converts an amount from one currency to another. Converting a
// currency to itself always succeeds with the amount unchanged.
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) (float64, error)
}

// Static is a fixed-rate Converter for tests and offline development.
type Static struct {
	rates map[[2]string]float64
}

// NewStatic returns a Static converter with no rates configured.
func NewStatic() *Static {
	return &Static{rates: make(map[[2]string]float64)}
}

// WithRate registers a one-way rate and returns the converter for chaining.
func (s *Static) WithRate(from, to string, rate float64) *Static {
	s.rates[[2]string{from, to}] = rate
	return s
}

// Convert multiplies amount by the registered rate. Unknown pairs return
// ErrConversionFailed.
func (s *Static) Convert(_ context.Context, amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}
	rate, ok := s.rates[[2]string{from, to}]
	if !ok {
		return 0, ErrConversionFailed
	}
	return amount * rate, nil
}
