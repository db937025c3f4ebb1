package hermes

const (
	SubjectAssessmentRequest = "riskrater.assessment.request"
	SubjectScoreComputed     = "riskrater.score.computed"
	SubjectHistoryCleared    = "riskrater.history.cleared"
	SubjectChatRelayed       = "riskrater.chat.relayed"

	StreamName   = "RISKRATER_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectAssessmentSaved(id string) string    { return "riskrater.assessment." + id + ".saved" }
func SubjectAssessmentRejected(id string) string { return "riskrater.assessment." + id + ".rejected" }
