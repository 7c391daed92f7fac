package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type role string

const (
	buyer    role = "buyer"
	seller   role = "seller"
	stranger role = "stranger"
)

func (r role) flags() (bool, bool) {
	return r == buyer, r == seller
}

type key struct {
	from   Status
	action Action
	by     role
}

// 合法流转的完整表，其余组合必须被拒绝
var allowed = map[key]Status{
	{StatusPending, ActionPay, buyer}:      StatusPaid,
	{StatusPaid, ActionShip, seller}:       StatusShipping,
	{StatusShipping, ActionConfirm, buyer}: StatusCompleted,
	{StatusPending, ActionCancel, buyer}:   StatusCancelled,
	{StatusPaid, ActionCancel, seller}:     StatusCancelled,
}

func TestTransitionTableIsExhaustive(t *testing.T) {
	for _, from := range Statuses {
		for _, action := range Actions {
			for _, r := range []role{buyer, seller, stranger} {
				isBuyer, isSeller := r.flags()
				got, err := Transition(from, action, isBuyer, isSeller)

				want, ok := allowed[key{from, action, r}]
				if ok {
					require.NoError(t, err, "%s %s by %s", from, action, r)
					assert.Equal(t, want, got)
					continue
				}
				assert.Error(t, err, "%s %s by %s", from, action, r)
				assert.Equal(t, from, got, "rejected transition must keep the current status")
			}
		}
	}
}

func TestTransitionErrorKinds(t *testing.T) {
	cases := []struct {
		name    string
		from    Status
		action  Action
		by      role
		wantErr error
	}{
		{"seller cannot pay", StatusPending, ActionPay, seller, ErrForbidden},
		{"buyer cannot ship", StatusPaid, ActionShip, buyer, ErrForbidden},
		{"seller cannot confirm", StatusShipping, ActionConfirm, seller, ErrForbidden},
		{"stranger is forbidden", StatusPending, ActionPay, stranger, ErrForbidden},
		{"pay twice", StatusPaid, ActionPay, buyer, ErrInvalidTransition},
		{"ship before pay", StatusPending, ActionShip, seller, ErrInvalidTransition},
		{"confirm before ship", StatusPaid, ActionConfirm, buyer, ErrInvalidTransition},
		{"seller cancels pending", StatusPending, ActionCancel, seller, ErrForbidden},
		{"buyer cancels paid", StatusPaid, ActionCancel, buyer, ErrForbidden},
		{"cancel while shipping", StatusShipping, ActionCancel, buyer, ErrInvalidTransition},
		{"cancel completed", StatusCompleted, ActionCancel, buyer, ErrInvalidTransition},
		{"cancel cancelled", StatusCancelled, ActionCancel, seller, ErrInvalidTransition},
		{"unknown action", StatusPending, Action("refund"), buyer, ErrUnknownAction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isBuyer, isSeller := tc.by.flags()
			got, err := Transition(tc.from, tc.action, isBuyer, isSeller)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.from, got)
		})
	}
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		for _, action := range Actions {
			for _, r := range []role{buyer, seller} {
				isBuyer, isSeller := r.flags()
				_, err := Transition(from, action, isBuyer, isSeller)
				assert.Error(t, err)
			}
		}
	}
}

func TestStatusAndActionValid(t *testing.T) {
	assert.True(t, StatusShipping.Valid())
	assert.False(t, Status("all").Valid())
	assert.True(t, ActionConfirm.Valid())
	assert.False(t, Action("").Valid())
}
