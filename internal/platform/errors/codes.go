// Package errors provides structured error handling for the game API.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnauthenticated Code = "UNAUTHENTICATED"

	// Player errors
	CodePlayerNotFound  Code = "PLAYER_NOT_FOUND"
	CodeUsernameTaken   Code = "USERNAME_TAKEN"
	CodePlayersMissing  Code = "PLAYERS_MISSING"
	CodeUsernameEmpty   Code = "USERNAME_EMPTY"
	CodeLevelOutOfRange Code = "LEVEL_OUT_OF_RANGE"

	// Match errors
	CodeMatchNotFound      Code = "MATCH_NOT_FOUND"
	CodeMatchNotInProgress Code = "MATCH_NOT_IN_PROGRESS"
	CodeInvalidMatchType   Code = "INVALID_MATCH_TYPE"
	CodeEmptyPlayerIDs     Code = "EMPTY_PLAYER_IDS"

	// Transaction errors
	CodeInvalidAmount Code = "INVALID_AMOUNT"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeInternal Code = "INTERNAL"
)

// HTTPStatus maps the code onto the HTTP status the API responds with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodePlayerNotFound, CodeMatchNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeInvalidArgument, CodeUsernameTaken, CodeUsernameEmpty, CodeLevelOutOfRange,
		CodeMatchNotInProgress, CodeInvalidMatchType, CodeEmptyPlayerIDs, CodePlayersMissing,
		CodeInvalidAmount:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
