package model

type SessionState int

const (
	DefaultState SessionState = iota
	ExpectingSymbol
	ExpectingLot
	ExpectingPortfolioName
	ExpectingImportFile
	ExpectingEvent
	ExpectingDividend
	ExpectingAlert
	ExpectingNote
	ExpectingFilter
	ExpectingGroup
)

// Session is the per-chat dialog state kept between bot updates.
type Session struct {
	State  SessionState
	Symbol string
}
