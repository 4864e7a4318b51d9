// FILE: errors.go
// Package tradeerrors – the error taxonomy of the trading core.
//
// Each kind below is a distinct Go type so callers can recover the offending
// context with errors.As instead of parsing a message string. Construction
// helpers keep call sites terse.
package tradeerrors

import "fmt"

// ValueNotPresent reports an enum/string parameter outside its accepted set.
type ValueNotPresent struct {
	ClassName string
	Param     string
	Value     string
	Accepted  []string
}

func (e *ValueNotPresent) Error() string {
	return fmt.Sprintf("%s: %q is not an accepted value for %s (accepted: %v)", e.ClassName, e.Value, e.Param, e.Accepted)
}

// InputParameterConflict reports two mutually-exclusive config knobs both supplied.
type InputParameterConflict struct {
	ClassName                    string
	ProvidedInput                string
	InputTypes                   [2]string
	ExpectedCorrespondingInput   string
	UnexpectedCorrespondingInput string
}

func (e *InputParameterConflict) Error() string {
	return fmt.Sprintf("%s: provided %q (one of %v) but also received the %s value; only %s is expected",
		e.ClassName, e.ProvidedInput, e.InputTypes, e.UnexpectedCorrespondingInput, e.ExpectedCorrespondingInput)
}

// MissingPrice reports a required price absent when needed.
type MissingPrice struct {
	ClassName string
	PriceType string
}

func (e *MissingPrice) Error() string {
	return fmt.Sprintf("%s: missing required price %q", e.ClassName, e.PriceType)
}

// MissingOrderAttribute reports dereferencing an order field never populated.
type MissingOrderAttribute struct {
	ClassName string
	Attribute string
}

func (e *MissingOrderAttribute) Error() string {
	return fmt.Sprintf("%s: order attribute %q has not been set", e.ClassName, e.Attribute)
}

// OrderTypeError reports a method receiving an order whose type doesn't match.
type OrderTypeError struct {
	Method   string
	Expected string
	Got      string
}

func (e *OrderTypeError) Error() string {
	return fmt.Sprintf("%s: expected order type %s, got %s", e.Method, e.Expected, e.Got)
}

// UnmatchedTickerError reports an order symbol differing from the broker's bound symbol.
type UnmatchedTickerError struct {
	OrderSymbol  string
	BrokerSymbol string
}

func (e *UnmatchedTickerError) Error() string {
	return fmt.Sprintf("order symbol %q does not match broker-bound symbol %q", e.OrderSymbol, e.BrokerSymbol)
}

// MissingRequiredTradingElement reports a Trade executing without a required collaborator.
type MissingRequiredTradingElement struct {
	Element string
}

func (e *MissingRequiredTradingElement) Error() string {
	return fmt.Sprintf("trade is missing required element: %s", e.Element)
}

// TickerIDNotFound reports a live broker failing to resolve a symbol.
type TickerIDNotFound struct {
	Symbol string
}

func (e *TickerIDNotFound) Error() string {
	return fmt.Sprintf("ticker id not found for symbol %q", e.Symbol)
}

// OrderPlacingError reports a live broker HTTP/transport failure.
type OrderPlacingError struct {
	Symbol string
	Cause  error
}

func (e *OrderPlacingError) Error() string {
	return fmt.Sprintf("order placing failed for %q: %v", e.Symbol, e.Cause)
}

func (e *OrderPlacingError) Unwrap() error { return e.Cause }

// OrderAlreadyRegistered reports an insert into the pending register with a
// key that is already present, or with an order that has already settled.
type OrderAlreadyRegistered struct {
	BrokerRefID string
	Settled     bool
}

func (e *OrderAlreadyRegistered) Error() string {
	if e.Settled {
		return fmt.Sprintf("order %q has already settled and cannot enter the pending register", e.BrokerRefID)
	}
	return fmt.Sprintf("order %q is already in the pending register", e.BrokerRefID)
}

// PendingOrderNotInPendingList reports reconcile called on an order not registered.
type PendingOrderNotInPendingList struct {
	BrokerRefID string
}

func (e *PendingOrderNotInPendingList) Error() string {
	return fmt.Sprintf("order %q is not in the pending register", e.BrokerRefID)
}

// MultiplePendingOrderException reports an invariant violation: more than one
// pending regular or stop order detected. Fatal to the Trade.
type MultiplePendingOrderException struct {
	Kind string // "regular" or "stop"
}

func (e *MultiplePendingOrderException) Error() string {
	return fmt.Sprintf("more than one pending %s order exists", e.Kind)
}

// UnsettledOrderPersistError reports a pending regular order surviving a
// pre_next cancellation attempt. Fatal to the Trade.
type UnsettledOrderPersistError struct {
	BrokerRefID string
}

func (e *UnsettledOrderPersistError) Error() string {
	return fmt.Sprintf("order %q remained unsettled after cancellation attempt", e.BrokerRefID)
}

// DependentSignalConflict reports a dependent signal orientation mismatch.
type DependentSignalConflict struct {
	LeaderCodename   string
	FollowerCodename string
}

func (e *DependentSignalConflict) Error() string {
	return fmt.Sprintf("signal %q and its dependent %q do not share orientation", e.LeaderCodename, e.FollowerCodename)
}

// SignalNotRequiredException reports a leading dependent supplied for a
// sequence position that forbids one (Only/First).
type SignalNotRequiredException struct {
	Codename string
	Sequence string
}

func (e *SignalNotRequiredException) Error() string {
	return fmt.Sprintf("signal %q (sequence %s) must not receive a leading dependent", e.Codename, e.Sequence)
}

// MissingDependentSignalError reports a sequence position requiring a
// leading dependent that was not supplied (Middle/Last).
type MissingDependentSignalError struct {
	Codename string
	Sequence string
}

func (e *MissingDependentSignalError) Error() string {
	return fmt.Sprintf("signal %q (sequence %s) requires a leading dependent", e.Codename, e.Sequence)
}
