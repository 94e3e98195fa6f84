package adminaction

type ActionType string

const (
	ActionMarkMilestonePaid    ActionType = "MARK_MILESTONE_PAID"
	ActionCompleteWithoutProof ActionType = "COMPLETE_WITHOUT_PROOF"
	ActionReopenBooking        ActionType = "REOPEN_BOOKING"
)

func ParseActionType(s string) (ActionType, bool) {
	switch ActionType(s) {
	case ActionMarkMilestonePaid, ActionCompleteWithoutProof, ActionReopenBooking:
		return ActionType(s), true
	}
	return "", false
}
