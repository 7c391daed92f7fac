package order

import "errors"

var (
	// ErrForbidden 操作人角色不允许执行该动作
	ErrForbidden = errors.New("actor not allowed for this action")
	// ErrInvalidTransition 当前状态不允许该动作
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrUnknownAction     = errors.New("unknown order action")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipping  Status = "shipping"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses 全部订单状态
var Statuses = []Status{StatusPending, StatusPaid, StatusShipping, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

type Action string

const (
	ActionPay     Action = "pay"
	ActionShip    Action = "ship"
	ActionConfirm Action = "confirm"
	ActionCancel  Action = "cancel"
)

var Actions = []Action{ActionPay, ActionShip, ActionConfirm, ActionCancel}

func (a Action) Valid() bool {
	for _, v := range Actions {
		if v == a {
			return true
		}
	}
	return false
}

type actor int

const (
	actorBuyer actor = iota
	actorSeller
)

func (a actor) matches(isBuyer, isSeller bool) bool {
	if a == actorBuyer {
		return isBuyer
	}
	return isSeller
}

type rule struct {
	from Status
	to   Status
	by   actor
}

var forward = map[Action]rule{
	ActionPay:     {from: StatusPending, to: StatusPaid, by: actorBuyer},
	ActionShip:    {from: StatusPaid, to: StatusShipping, by: actorSeller},
	ActionConfirm: {from: StatusShipping, to: StatusCompleted, by: actorBuyer},
}

// 待支付只能由买家取消，已支付只能由卖家取消；发货后不可取消
var cancellableBy = map[Status]actor{
	StatusPending: actorBuyer,
	StatusPaid:    actorSeller,
}

// Transition 订单状态机，纯函数，不涉及存储。
// 非订单参与方、角色不符返回 ErrForbidden；状态不符返回 ErrInvalidTransition。
// 出错时返回的状态恒为 current。
func Transition(current Status, action Action, isBuyer, isSeller bool) (Status, error) {
	if !isBuyer && !isSeller {
		return current, ErrForbidden
	}
	if action == ActionCancel {
		by, ok := cancellableBy[current]
		if !ok {
			return current, ErrInvalidTransition
		}
		if !by.matches(isBuyer, isSeller) {
			return current, ErrForbidden
		}
		return StatusCancelled, nil
	}

	r, ok := forward[action]
	if !ok {
		return current, ErrUnknownAction
	}
	if !r.by.matches(isBuyer, isSeller) {
		return current, ErrForbidden
	}
	if current != r.from {
		return current, ErrInvalidTransition
	}
	return r.to, nil
}
