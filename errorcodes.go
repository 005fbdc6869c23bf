package hafas

import "fmt"

// Status is the outcome of a trip search.
//
// Every status other than Status_OK is an expected, data-driven result rather than a
// decode failure, and callers are expected to branch on it.
type Status int32

const (
	Status_OK Status = 0
	// The search succeeded but found no trips.
	Status_NoTrips Status = 1
	// The pagination context is no longer valid on the backend. Start over with a
	// fresh query instead of retrying the same context.
	Status_SessionExpired Status = 2
	Status_Ambiguous      Status = 3
	Status_TooClose       Status = 4
	Status_InvalidDate    Status = 5
	Status_UnknownFrom    Status = 6
	Status_UnknownVia     Status = 7
	Status_UnknownTo      Status = 8
	// The backend failed; BackendError.Reason describes why.
	Status_Fatal Status = 9
)

func (s Status) String() string {
	switch s {
	case Status_OK:
		return "OK"
	case Status_NoTrips:
		return "NO_TRIPS"
	case Status_SessionExpired:
		return "SESSION_EXPIRED"
	case Status_Ambiguous:
		return "AMBIGUOUS"
	case Status_TooClose:
		return "TOO_CLOSE"
	case Status_InvalidDate:
		return "INVALID_DATE"
	case Status_UnknownFrom:
		return "UNKNOWN_FROM"
	case Status_UnknownVia:
		return "UNKNOWN_VIA"
	case Status_UnknownTo:
		return "UNKNOWN_TO"
	default:
		return "FATAL"
	}
}

// BackendError is an error code reported in the extension header of a response.
type BackendError struct {
	Code   int
	Kind   Status
	Reason string
}

func (e *BackendError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("hafas backend error H%d (%s): %s", e.Code, e.Kind, e.Reason)
	}
	return fmt.Sprintf("hafas backend error H%d (%s)", e.Code, e.Kind)
}

// TranslateErrorCode maps a backend error code to its outcome. Unknown codes are Status_Fatal.
func TranslateErrorCode(code int) BackendError {
	e := BackendError{Code: code}
	switch code {
	case 1:
		e.Kind, e.Reason = Status_SessionExpired, "session expired"
	case 2:
		// F2: search results could not be stored internally
		e.Kind, e.Reason = Status_SessionExpired, "results not stored"
	case 8:
		e.Kind = Status_Ambiguous
	case 13, 19, 207, 65535:
		// IN13: too many simultaneous users; H207: request cannot be processed
		e.Kind, e.Reason = Status_Fatal, "service down"
	case 887:
		// H887: inquiry too complex
		e.Kind = Status_NoTrips
	case 890, 891, 892:
		e.Kind = Status_NoTrips
	case 899, 900:
		// incomplete search due to a timetable change
		e.Kind = Status_NoTrips
	case 895:
		e.Kind = Status_TooClose
	case 9220:
		// H9220: no stations near the given address
		e.Kind, e.Reason = Status_Fatal, "unresolvable address"
	case 9240:
		// H9240: endpoints not served on the given date
		e.Kind = Status_NoTrips
	case 9260:
		e.Kind = Status_UnknownFrom
	case 9280:
		e.Kind = Status_UnknownVia
	case 9300:
		e.Kind = Status_UnknownTo
	case 9320, 9360:
		e.Kind = Status_InvalidDate
	case 9380:
		// H9380: the same station given more than once
		e.Kind = Status_TooClose
	default:
		e.Kind, e.Reason = Status_Fatal, fmt.Sprintf("unknown error code %d", code)
	}
	return e
}
