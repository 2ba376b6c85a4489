package domain

import "strconv"

// Adjustment is a stock change that was committed for a product at a location.
type Adjustment struct {
	ProductID  string
	LocationID string
	Delta      int
}

// Inverse returns the adjustment that undoes a.
func (a Adjustment) Inverse() Adjustment {
	return Adjustment{ProductID: a.ProductID, LocationID: a.LocationID, Delta: -a.Delta}
}

func (a Adjustment) String() string {
	sign := ""
	if a.Delta > 0 {
		sign = "+"
	}
	return a.ProductID + "@" + a.LocationID + " " + sign + strconv.Itoa(a.Delta)
}
