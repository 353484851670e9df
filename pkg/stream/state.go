package stream

// State is the lifecycle state of a Session.
type State int32

const (
	// StateIdle has no connection. Sessions start and end here.
	StateIdle State = iota
	// StateConnecting is issuing the session token and dialing.
	StateConnecting
	// StateOpen has a live transport connection.
	StateOpen
	// StateAuthenticating has sent the auth payload and waits for the acknowledgement.
	StateAuthenticating
	// StateAuthenticated received a successful auth acknowledgement.
	StateAuthenticated
	// StateSubscribed has sent the subscription payload.
	StateSubscribed
	// StateClosing is tearing the connection down.
	StateClosing
)

func (s State) String() string {
	return [...]string{
		"idle",
		"connecting",
		"open",
		"authenticating",
		"authenticated",
		"subscribed",
		"closing",
	}[s]
}
