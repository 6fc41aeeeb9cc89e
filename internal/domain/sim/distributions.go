package sim

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution generates stochastic per-race ratings for one runner.
type Distribution interface {
	// Sample draws one simulated rating.
	Sample() float64
	// Mean is the expected value of Sample.
	Mean() float64
}

// maxwellDist is a reflected-and-shifted Maxwell distribution centered on
// the runner's rating: the raw Maxwell draw (always positive, right
// skewed) is subtracted, so markedly slow races are more probable than
// equally fast ones, and the distribution mean is added back so that the
// expected sample equals the rating.
type maxwellDist struct {
	rating float64
	scale  float64
	norm   distuv.Normal // standard normal feeding the Maxwell draw
}

func newMaxwellDist(ratingVal, scale float64, src rand.Source) *maxwellDist {
	return &maxwellDist{
		rating: ratingVal,
		scale:  scale,
		norm:   distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

// maxwellMean is E[X] for a Maxwell distribution with scale a.
func maxwellMean(a float64) float64 {
	return 2 * a * math.Sqrt(2/math.Pi)
}

func (d *maxwellDist) Sample() float64 {
	// A Maxwell variate is the norm of three iid standard normals,
	// scaled.
	x := d.norm.Rand()
	y := d.norm.Rand()
	z := d.norm.Rand()
	draw := d.scale * math.Sqrt(x*x+y*y+z*z)
	return d.rating + maxwellMean(d.scale) - draw
}

func (d *maxwellDist) Mean() float64 {
	return d.rating
}

// normalDist draws Gaussian ratings around the runner's rating. Legacy
// alternative to the Maxwell law.
type normalDist struct {
	dist distuv.Normal
}

func newNormalDist(ratingVal, scale float64, src rand.Source) *normalDist {
	return &normalDist{dist: distuv.Normal{Mu: ratingVal, Sigma: scale, Src: src}}
}

func (d *normalDist) Sample() float64 {
	return d.dist.Rand()
}

func (d *normalDist) Mean() float64 {
	return d.dist.Mu
}
