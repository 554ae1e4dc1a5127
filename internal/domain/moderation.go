package domain

// ModerationAction описывает действие модератора над заявкой.
type ModerationAction string

const (
	ActionApprove        ModerationAction = "approve"
	ActionReject         ModerationAction = "reject"
	ActionToggleFeatured ModerationAction = "toggle_featured"
	ActionToggleVerified ModerationAction = "toggle_verified"
)

// Approve переводит заявку из pending в approved.
// Переход разрешён только из pending: возврата в pending не существует,
// повторный approve или approve после reject — ошибка.
func Approve(s ChannelSubmission) (ChannelSubmission, error) {
	if s.Status != StatusPending {
		return s, ErrInvalidTransition
	}
	s.Status = StatusApproved
	return s, nil
}

// Reject переводит заявку из pending в rejected.
func Reject(s ChannelSubmission) (ChannelSubmission, error) {
	if s.Status != StatusPending {
		return s, ErrInvalidTransition
	}
	s.Status = StatusRejected
	return s, nil
}

// ToggleFeatured переключает флаг featured. Разрешено только для approved.
func ToggleFeatured(s ChannelSubmission) (ChannelSubmission, error) {
	if s.Status != StatusApproved {
		return s, ErrInvalidState
	}
	s.Featured = !s.Featured
	return s, nil
}

// ToggleVerified переключает флаг verified. Разрешено только для approved.
func ToggleVerified(s ChannelSubmission) (ChannelSubmission, error) {
	if s.Status != StatusApproved {
		return s, ErrInvalidState
	}
	s.Verified = !s.Verified
	return s, nil
}

// ApplyModeration применяет действие к заявке.
func ApplyModeration(action ModerationAction, s ChannelSubmission) (ChannelSubmission, error) {
	switch action {
	case ActionApprove:
		return Approve(s)
	case ActionReject:
		return Reject(s)
	case ActionToggleFeatured:
		return ToggleFeatured(s)
	case ActionToggleVerified:
		return ToggleVerified(s)
	default:
		return s, ErrInvalidTransition
	}
}
