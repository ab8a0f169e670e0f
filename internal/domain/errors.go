package domain

import "errors"

var (
	// ErrCardNotFound is returned when an operation names a card that is not
	// in the inventory.
	ErrCardNotFound = errors.New("card not found in inventory")
	// ErrOfferNotFound indicates an unknown shop offer ID.
	ErrOfferNotFound = errors.New("shop offer not found")
	// ErrPaymentDeclined indicates the payment capability rejected a charge.
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrPaymentCancelled indicates the player aborted the payment widget.
	ErrPaymentCancelled = errors.New("payment cancelled")
	// ErrInsufficientDiamonds indicates a purchase exceeding the balance.
	ErrInsufficientDiamonds = errors.New("insufficient diamonds")
	// ErrNoBoosters indicates a booster use with an empty stock.
	ErrNoBoosters = errors.New("no boosters remaining")
	// ErrNoHearts indicates a play action was attempted with zero hearts.
	ErrNoHearts = errors.New("no hearts remaining")
	// ErrSessionClosed indicates the trivia session has been torn down.
	ErrSessionClosed = errors.New("session closed")
)
