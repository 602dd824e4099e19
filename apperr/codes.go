// Package apperr provides the tagged failures returned by every fallible
// season, gate, and settlement operation.
package apperr

import "github.com/gofiber/fiber/v2"

// Code is the stable, machine-readable failure tag callers match on.
type Code string

const (
	// Authorization
	CodeOnlyOperator       Code = "OnlyOperator"
	CodeOnlyOperatorMaster Code = "OnlyOperatorMaster"
	CodeOnlyController     Code = "OnlyController"

	// Referential
	CodeInvalidCollectionID       Code = "InvalidCollectionId"
	CodeInvalidSeasonID           Code = "InvalidSeasonId"
	CodeInvalidTokenContract      Code = "InvalidTokenContract"
	CodeAlreadyExistTokenContract Code = "AlreadyExistTokenContract"

	// Temporal
	CodeInvalidBlockNumber Code = "InvalidBlockNumber"
	CodeAlreadyStartSeason Code = "AlreadyStartSeason"
	CodeEndedSeason        Code = "EndedSeason"

	// Domain rules
	CodeInvalidRankType  Code = "InvalidRankType"
	CodeInvalidMonster   Code = "InvalidMonster"
	CodeSlotExceeded     Code = "SlotExceeded"
	CodeAlreadyClaimed   Code = "AlreadyClaimed"
	CodeInvalidRate      Code = "InvalidRate"
	CodeInvalidArgument  Code = "InvalidArgument"
	CodeAlreadyMinted    Code = "AlreadyMinted"
	CodeDuplicateAccount Code = "DuplicateAccount"

	// CodeUnknown covers storage and decode failures that carry no tag.
	CodeUnknown Code = "UnknownError"
)

// HTTPStatus maps a tag to the status the HTTP surface answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeOnlyOperator, CodeOnlyOperatorMaster, CodeOnlyController:
		return fiber.StatusForbidden

	case CodeInvalidCollectionID, CodeInvalidSeasonID:
		return fiber.StatusNotFound

	case CodeAlreadyExistTokenContract,
		CodeAlreadyClaimed,
		CodeAlreadyMinted,
		CodeDuplicateAccount,
		CodeAlreadyStartSeason,
		CodeEndedSeason,
		CodeSlotExceeded:
		return fiber.StatusConflict

	case CodeInvalidTokenContract,
		CodeInvalidBlockNumber,
		CodeInvalidRankType,
		CodeInvalidMonster,
		CodeInvalidRate:
		return fiber.StatusUnprocessableEntity

	case CodeInvalidArgument:
		return fiber.StatusBadRequest

	default:
		return fiber.StatusInternalServerError
	}
}
