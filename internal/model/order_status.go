package model

// 显式状态机：订单状态只能沿着发货流程前进，
// cancelled 可从任意非终态进入，终态不再流转。
// 允许向前跳跃（例如 pending 直接到 shipped），不允许回退。

var orderStatusRank = map[string]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

// IsValidOrderStatus 订单状态枚举校验
func IsValidOrderStatus(s string) bool {
	if s == OrderStatusCancelled {
		return true
	}
	_, ok := orderStatusRank[s]
	return ok
}

// IsTerminalStatus delivered 和 cancelled 为终态
func IsTerminalStatus(s string) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition 判断 from -> to 是否为合法状态流转
func CanTransition(from, to string) bool {
	if !IsValidOrderStatus(from) || !IsValidOrderStatus(to) {
		return false
	}
	if IsTerminalStatus(from) {
		return false
	}
	if to == OrderStatusCancelled {
		// 取消走专门的取消流程，任何非终态都可进入
		return true
	}
	// 仅允许前进
	return orderStatusRank[to] > orderStatusRank[from]
}

// Cancellable 订单当前状态是否允许取消
// 已发货订单仍允许取消并回补库存，与线上行为保持一致
func (o *Order) Cancellable() bool {
	return !IsTerminalStatus(o.OrderStatus)
}
