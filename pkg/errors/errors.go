package errors

import "errors"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidStake    = errors.New("invalid stake")
	ErrUnsupportedGame = errors.New("unsupported game kind")

	ErrInvalidNickname   = errors.New("invalid nickname")
	ErrTooManyRequests   = errors.New("too many requests")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserBanned        = errors.New("user is banned")
	ErrInvalidUserStatus = errors.New("invalid user status")

	ErrAdminNotFound        = errors.New("admin not found")
	ErrAdminDisabled        = errors.New("admin account disabled")
	ErrInvalidAdminPassword = errors.New("invalid admin credentials")

	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionAccessDenied = errors.New("session access denied")
	ErrAlreadyInGame       = errors.New("user already in an active game")

	ErrSceneNotFound    = errors.New("scene not found")
	ErrSceneDisabled    = errors.New("scene disabled")
	ErrInvalidScene     = errors.New("invalid scene")
	ErrRakeRuleNotFound = errors.New("rake rule not found")
	ErrInvalidRakeRule  = errors.New("invalid rake rule")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyInQueue      = errors.New("already in queue")
	ErrQueueProcessing     = errors.New("queue request is processing")

	ErrSettlementValidation = errors.New("settlement validation failed")
	ErrHandAlreadySettled   = errors.New("hand already settled")
	ErrGameAlreadyFinished  = errors.New("game already finished")
	ErrInvalidWalletPayload = errors.New("invalid wallet payload")
)
