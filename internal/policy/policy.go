// Package policy decides whether a principal may act on another user's
// resources.
package policy

import "github.com/Skotchmaster/honestybar/internal/models"

type Action string

const (
	ActionClearCart            Action = "cart.clear"
	ActionReadHistory          Action = "cart.history"
	ActionManageUsers          Action = "users.manage"
	ActionManageProducts       Action = "products.manage"
	ActionViewInactiveProducts Action = "products.view_inactive"
)

// adminOnly actions ignore the target: only admins may perform them.
var adminOnly = map[Action]bool{
	ActionManageUsers:          true,
	ActionManageProducts:       true,
	ActionViewInactiveProducts: true,
}

func CanAccess(p models.Principal, targetUserID string, action Action) bool {
	if p.IsAdmin() {
		return true
	}
	if adminOnly[action] {
		return false
	}
	return p.ID != "" && p.ID == targetUserID
}
