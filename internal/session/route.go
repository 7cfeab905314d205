// ABOUTME: Routing gate that maps session state onto the screen to show
// ABOUTME: Blocks on Loading and keeps protected views behind login

package session

// View is a top-level screen
type View int

const (
	ViewLoading View = iota
	ViewLogin
	ViewDashboard
)

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewLogin:
		return "login"
	case ViewDashboard:
		return "dashboard"
	default:
		return "unknown"
	}
}

// Route returns the view to show when want is requested in state
func Route(state State, want View) View {
	switch state {
	case Authenticated:
		if want == ViewLogin || want == ViewLoading {
			return ViewDashboard
		}
		return want
	case Unauthenticated:
		return ViewLogin
	default:
		return ViewLoading
	}
}
