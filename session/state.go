package session

import "fmt"

// State is a session lifecycle state
type State int

const (
	Idle State = iota
	AdapterReady
	Scanning
	DeviceSelected
	Connected
	Polling
	Disconnecting
	Terminated
	Failed
)

var stateNames = map[State]string{
	Idle:           "idle",
	AdapterReady:   "adapter-ready",
	Scanning:       "scanning",
	DeviceSelected: "device-selected",
	Connected:      "connected",
	Polling:        "polling",
	Disconnecting:  "disconnecting",
	Terminated:     "terminated",
	Failed:         "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// IsFinal reports whether no further transitions can happen
func (s State) IsFinal() bool {
	return s == Terminated || s == Failed
}

// transitions lists the legal successors of every state. Failed is reachable
// from any non-final state and is not repeated here.
var transitions = map[State][]State{
	Idle:           {AdapterReady, Terminated},
	AdapterReady:   {Scanning, Terminated},
	Scanning:       {DeviceSelected, Terminated},
	DeviceSelected: {Connected, Terminated},
	Connected:      {Polling, Disconnecting},
	Polling:        {Disconnecting},
	Disconnecting:  {Terminated},
}

// CanTransition reports whether from → to is a legal lifecycle step
func CanTransition(from, to State) bool {
	if from.IsFinal() {
		return false
	}
	if to == Failed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Outcome summarises why a session ended
type Outcome int

const (
	OutcomeNone Outcome = iota
	// OutcomeStreamed means polling ran until the shutdown signal
	OutcomeStreamed
	// OutcomeInterrupted means shutdown arrived before a device was connected
	OutcomeInterrupted
	OutcomeNoDevicesFound
	OutcomeInvalidSelection
	OutcomeAdapterUnavailable
	OutcomeAdapterNotReady
	OutcomeScanFailed
	OutcomeConnectFailed
	OutcomeReadFailed
	// OutcomeDiscovered ends a discovery-only run
	OutcomeDiscovered
)

var outcomeNames = map[Outcome]string{
	OutcomeNone:               "none",
	OutcomeStreamed:           "streamed",
	OutcomeInterrupted:        "interrupted",
	OutcomeNoDevicesFound:     "no-devices-found",
	OutcomeInvalidSelection:   "invalid-selection",
	OutcomeAdapterUnavailable: "adapter-unavailable",
	OutcomeAdapterNotReady:    "adapter-not-ready",
	OutcomeScanFailed:         "scan-failed",
	OutcomeConnectFailed:      "connect-failed",
	OutcomeReadFailed:         "read-failed",
	OutcomeDiscovered:         "discovered",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}
