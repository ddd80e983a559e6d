package classifier

import "gonum.org/v1/gonum/floats"

// regions are views of a normalized feature vector
type regions struct {
	spectral []float64
	rhythm   float64
	mfcc     []float64
	chroma   []float64
}

// rule adjusts the 0.5 base score of one genre
type rule func(r regions) float64

// rules are indexed like Genres
var rules = [NumGenres]rule{
	// blues
	func(r regions) float64 { return 0.10*floats.Sum(r.chroma[0:3]) - 0.05*r.rhythm },
	// classical
	func(r regions) float64 { return 0.15*floats.Sum(r.spectral[2:5]) - 0.10*r.rhythm },
	// country
	func(r regions) float64 { return 0.10*floats.Sum(r.mfcc[0:5]) + 0.05*r.chroma[2] },
	// disco
	func(r regions) float64 { return 0.20*r.rhythm + 0.10*r.spectral[1] },
	// hiphop
	func(r regions) float64 { return 0.15*r.rhythm + 0.10*r.mfcc[0] },
	// jazz
	func(r regions) float64 { return 0.15*floats.Sum(r.chroma) + 0.10*r.mfcc[2] },
	// metal
	func(r regions) float64 { return 0.15*r.spectral[1] + 0.10*r.rhythm },
	// pop
	func(r regions) float64 { return 0.05*floats.Sum(r.mfcc) + 0.05*r.rhythm },
	// reggae
	func(r regions) float64 { return 0.10*r.rhythm + 0.10*r.chroma[4] },
	// rock
	func(r regions) float64 { return 0.10*r.spectral[1] + 0.10*r.rhythm },
}

const baseScore = 0.5
