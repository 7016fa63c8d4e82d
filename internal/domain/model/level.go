package model

// UserLevel defines one tier of the level ladder. MinPoints is inclusive,
// MaxPoints exclusive; a nil MaxPoints means the tier is unbounded above.
type UserLevel struct {
	ID        int64
	Name      string
	MinPoints int64
	MaxPoints *int64
	Benefits  string
}

// Contains reports whether the balance falls inside [MinPoints, MaxPoints).
func (l *UserLevel) Contains(balance int64) bool {
	if balance < l.MinPoints {
		return false
	}
	return l.MaxPoints == nil || balance < *l.MaxPoints
}
