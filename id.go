package cfntheory

import (
	"github.com/oklog/ulid/v2"
)

// IDGenerator provides synthesis run ids.
type IDGenerator interface {
	NewID() string
}

// ULIDGenerator generates lexically sortable ids from a clock.
type ULIDGenerator struct {
	Clock Clock
}

func (g ULIDGenerator) NewID() string {
	var clock Clock = RealClock{}
	if g.Clock != nil {
		clock = g.Clock
	}
	return ulid.MustNew(ulid.Timestamp(clock.Now()), ulid.DefaultEntropy()).String()
}
