// Package impact turns demand changes into per-sector impact vectors and
// rolls them up into categories.
package impact

import (
	"errors"
	"fmt"
	"math"

	"ioimpact/internal/codes"
	"ioimpact/internal/coeff"
)

// DemandChange is a change in final demand for one basic sector, in million
// currency units.
type DemandChange struct {
	ScenarioID string       `json:"scenario_id" yaml:"scenario_id"`
	Year       int          `json:"year" yaml:"year"`
	Source     coeff.Source `json:"data_source" yaml:"source"`
	SectorCode string       `json:"sector_code" yaml:"sector"`
	Amount     float64      `json:"amount" yaml:"amount"`
}

// SectorImpact is the impact recorded against one row code.
type SectorImpact struct {
	Code  string  `json:"code"`
	Value float64 `json:"value"`
}

// Result is the impact vector of one demand change under one coefficient type.
// Impacts are ordered by row code; RowKind names the code space they live in.
type Result struct {
	Type       string          `json:"coefficient_type"`
	Source     coeff.Source    `json:"data_source"`
	SectorCode string          `json:"sector_code"`
	Amount     float64         `json:"amount"`
	RowKind    codes.IndexKind `json:"row_kind"`
	Unit       coeff.Unit      `json:"unit"`
	Impacts    []SectorImpact  `json:"impacts"`
}

// Total returns the sum of all impacts.
func (r Result) Total() float64 {
	var total float64
	for _, si := range r.Impacts {
		total += si.Value
	}
	return total
}

// Calculator computes impacts from a coefficient store. It holds no mutable
// state and is safe for concurrent use.
type Calculator struct {
	store *coeff.Store
}

func NewCalculator(store *coeff.Store) *Calculator {
	return &Calculator{store: store}
}

// Store returns the coefficient store the calculator reads from.
func (c *Calculator) Store() *coeff.Store { return c.store }

// ComputeImpact multiplies the sector's coefficient column by amount.
// Employment types are expressed per billion, so amount is divided by 1000
// for them. A zero amount yields an all-zero vector.
func (c *Calculator) ComputeImpact(src coeff.Source, typeID, sector string, amount float64) (Result, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Result{}, &InvalidAmountError{Sector: sector, Amount: amount}
	}
	m, err := c.store.Matrix(src, typeID)
	if err != nil {
		var ice *coeff.IncompatibleCoefficientError
		if errors.As(err, &ice) {
			ice.Sector = sector
		}
		return Result{}, err
	}
	typ := m.Type()
	column, ok := m.Column(sector)
	if !ok {
		return Result{}, &coeff.UnknownSectorError{Type: typ.ID, Source: src, Sector: sector}
	}

	scaled := typ.Unit.Scale(amount)
	impacts := make([]SectorImpact, len(column))
	for i, e := range column {
		impacts[i] = SectorImpact{Code: e.Code, Value: e.Value * scaled}
	}
	return Result{
		Type:       typ.ID,
		Source:     src,
		SectorCode: sector,
		Amount:     amount,
		RowKind:    m.RowKind(),
		Unit:       typ.Unit,
		Impacts:    impacts,
	}, nil
}

// ComputeAll computes the impact of amount under every coefficient type loaded
// for src. Failing types are skipped and reported through the joined error;
// the successful results are still returned.
func (c *Calculator) ComputeAll(src coeff.Source, sector string, amount float64) ([]Result, error) {
	types := c.store.Types(src)
	if len(types) == 0 {
		return nil, fmt.Errorf("no coefficient tables loaded for the %s table", src)
	}
	var (
		results []Result
		errs    []error
	)
	for _, t := range types {
		r, err := c.ComputeImpact(src, t.ID, sector, amount)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.ID, err))
			continue
		}
		results = append(results, r)
	}
	return results, errors.Join(errs...)
}

// ComputeByCategory computes the impact and aggregates it into categories.
func (c *Calculator) ComputeByCategory(src coeff.Source, typeID, sector string, amount float64) (Aggregated, error) {
	r, err := c.ComputeImpact(src, typeID, sector, amount)
	if err != nil {
		return Aggregated{}, err
	}
	return Aggregate(c.store.Registry(), r)
}
