package domain

// Kind identifies one of the reminder state machines managed by the engine.
type Kind string

const (
	KindWater   Kind = "water"
	KindStandup Kind = "standup"
)

func (k Kind) String() string {
	return string(k)
}

func (k Kind) Valid() bool {
	return k == KindWater || k == KindStandup
}

// Kinds returns all reminder kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindWater, KindStandup}
}
