package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Start func(ownerID string) (Result, error)
	Help  func(ownerID string) (Result, error)
	List  func(ownerID string) (Result, error)
	Clear func(ownerID string) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeStart:
		if handlers.Start == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "start handler not configured"}
		}
		return handlers.Start(cmd.OwnerID)
	case TypeHelp:
		if handlers.Help == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "help handler not configured"}
		}
		return handlers.Help(cmd.OwnerID)
	case TypeList:
		if handlers.List == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "list handler not configured"}
		}
		return handlers.List(cmd.OwnerID)
	case TypeClear:
		if handlers.Clear == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "clear handler not configured"}
		}
		return handlers.Clear(cmd.OwnerID)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
