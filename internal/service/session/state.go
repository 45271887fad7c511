package session

// State is what the page shows for a session.
type State int

const (
	NoFileSelected State = iota
	FileSelectedAwaitingAction
	ResultsShown
	Unavailable
)

func (s State) String() string {
	switch s {
	case NoFileSelected:
		return "no_file_selected"
	case FileSelectedAwaitingAction:
		return "file_selected"
	case ResultsShown:
		return "results_shown"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}
