package classifier

// Genre is one label of the fixed vocabulary
type Genre string

const (
	Blues     Genre = "blues"
	Classical Genre = "classical"
	Country   Genre = "country"
	Disco     Genre = "disco"
	HipHop    Genre = "hiphop"
	Jazz      Genre = "jazz"
	Metal     Genre = "metal"
	Pop       Genre = "pop"
	Reggae    Genre = "reggae"
	Rock      Genre = "rock"
)

// Genres lists the vocabulary in scoring order. Ties in the ranking keep this order.
var Genres = []Genre{Blues, Classical, Country, Disco, HipHop, Jazz, Metal, Pop, Reggae, Rock}

// NumGenres is the vocabulary size
const NumGenres = 10

// String implements fmt.Stringer
func (g Genre) String() string { return string(g) }

// Valid reports whether g is part of the vocabulary
func (g Genre) Valid() bool {
	for _, v := range Genres {
		if v == g {
			return true
		}
	}
	return false
}
