package log

// Inner log events.
const (
	EventComponentStarted  = "component_started"
	EventComponentShutdown = "component_shutdown"
	EventCycleStarted      = "cycle_started"
	EventCycleFinished     = "cycle_finished"
	EventCycleSkipped      = "cycle_skipped"
	EventMSShutdown        = "ms_shutdown"
	EventOffsetFailed      = "offset_failed"
	EventOffsetSet         = "offset_set"
	EventPanic             = "panic"
	EventRescheduled       = "rescheduled"
	EventRoomsLoaded       = "rooms_loaded"
	EventStoreInit         = "store_init"
	EventThermostatSkipped = "thermostat_skipped"
)
