package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInCycle
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	Schedule(e Event)
}

// An Engine is a unit that keeps the discrete event simulation running.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run processes all the events until no event is left.
	Run() error

	// Pause stops the engine from dispatching events until Continue is
	// called.
	Pause()

	// Continue resumes a paused engine.
	Continue()
}
