package gcal

import "golang.org/x/oauth2"

// OAuth 2.0 endpoints and scopes for the Google Calendar API. The client ID
// and secret are deployment configuration, never compiled in.
const (
	AuthURL  = "https://accounts.google.com/o/oauth2/auth"
	TokenURL = "https://oauth2.googleapis.com/token"

	ScopeCalendarEvents = "https://www.googleapis.com/auth/calendar.events"
)

// Endpoint is the Google OAuth 2.0 endpoint used for token refresh.
var Endpoint = oauth2.Endpoint{AuthURL: AuthURL, TokenURL: TokenURL}

// Private extended property keys written onto mirrored events. They are the
// sole correlation state for shift mirroring; no local mapping table exists,
// so idempotency always re-queries the store calendar.
const (
	KeySyncType        = "syncType"
	KeyStaffID         = "staffId"
	KeyOriginalEventID = "originalEventId"
	KeyAppointmentID   = "appointmentId"

	SyncTypeShift = "shift"
)
