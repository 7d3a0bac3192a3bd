package model

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusDraft         ProjectStatus = "draft"          // 草稿
	ProjectStatusPendingReview ProjectStatus = "pending_review" // 待审核
	ProjectStatusApproved      ProjectStatus = "approved"       // 审核通过
	ProjectStatusLive          ProjectStatus = "live"           // 众筹中
	ProjectStatusSuccessful    ProjectStatus = "successful"     // 成功
	ProjectStatusFailed        ProjectStatus = "failed"         // 失败
	ProjectStatusCancelled     ProjectStatus = "cancelled"      // 已取消
)

var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusDraft:         {ProjectStatusPendingReview, ProjectStatusCancelled},
	ProjectStatusPendingReview: {ProjectStatusApproved, ProjectStatusDraft, ProjectStatusCancelled},
	ProjectStatusApproved:      {ProjectStatusLive, ProjectStatusCancelled},
	ProjectStatusLive:          {ProjectStatusSuccessful, ProjectStatusFailed, ProjectStatusCancelled},
}

// CanTransitionTo 判断项目状态迁移是否合法
func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	for _, allowed := range projectTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal 终态不再迁移
func (s ProjectStatus) IsTerminal() bool {
	return len(projectTransitions[s]) == 0
}

// MilestoneStatus 里程碑状态
type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"     // 待开始
	MilestoneStatusInProgress MilestoneStatus = "in_progress" // 进行中
	MilestoneStatusCompleted  MilestoneStatus = "completed"   // 已完成，等待审核
	MilestoneStatusVerified   MilestoneStatus = "verified"    // 审核通过，可放款
	MilestoneStatusFailed     MilestoneStatus = "failed"      // 审核未通过
)

var milestoneTransitions = map[MilestoneStatus][]MilestoneStatus{
	MilestoneStatusPending:    {MilestoneStatusInProgress},
	MilestoneStatusInProgress: {MilestoneStatusCompleted},
	MilestoneStatusCompleted:  {MilestoneStatusVerified, MilestoneStatusFailed},
}

func (s MilestoneStatus) CanTransitionTo(next MilestoneStatus) bool {
	for _, allowed := range milestoneTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Done 已完成或已审核
func (s MilestoneStatus) Done() bool {
	return s == MilestoneStatusCompleted || s == MilestoneStatusVerified
}

var milestoneStatuses = []MilestoneStatus{
	MilestoneStatusPending,
	MilestoneStatusInProgress,
	MilestoneStatusCompleted,
	MilestoneStatusVerified,
	MilestoneStatusFailed,
}

// DoneMilestoneStatuses 返回 Done 为 true 的全部状态，用于查询条件
func DoneMilestoneStatuses() []MilestoneStatus {
	var out []MilestoneStatus
	for _, s := range milestoneStatuses {
		if s.Done() {
			out = append(out, s)
		}
	}
	return out
}

// EscrowStatus 托管资金状态，released 和 refunded 都是终态
type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

func (s EscrowStatus) CanTransitionTo(next EscrowStatus) bool {
	return s == EscrowStatusHeld && (next == EscrowStatusReleased || next == EscrowStatusRefunded)
}
