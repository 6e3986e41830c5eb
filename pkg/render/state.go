package render

// State is the lifecycle state of a render job.
type State int

const (
	Idle State = iota
	Writing
	Spawned
	Collecting
	Succeeded
	Failed
)

var stateNames = [...]string{
	Idle:       "Idle",
	Writing:    "Writing",
	Spawned:    "Spawned",
	Collecting: "Collecting",
	Succeeded:  "Succeeded",
	Failed:     "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s ends a job.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}
