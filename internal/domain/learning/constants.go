package learning

const (
	ContentVideo        = "video"
	ContentAudio        = "audio"
	ContentPDF          = "pdf"
	ContentExternalLink = "external_link"
	ContentQuiz         = "quiz"
)

const (
	QuestionSingle = "single"
	QuestionMulti  = "multi"
)

const (
	ProgressNotStarted = "not_started"
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"
)

const (
	EnrollmentNotStarted = "not_started"
	EnrollmentInProgress = "in_progress"
	EnrollmentCompleted  = "completed"
	EnrollmentExpired    = "expired"
)

const (
	SourceManual     = "manual"
	SourcePath       = "path"
	SourceAssignment = "assignment"
)

const (
	PathDraft     = "draft"
	PathPublished = "published"
	PathArchived  = "archived"
)

const (
	PathEnrollmentAssigned   = "assigned"
	PathEnrollmentInProgress = "in_progress"
	PathEnrollmentCompleted  = "completed"
	PathEnrollmentAbandoned  = "abandoned"
)

// autoCompleteRatio is the share of a video or audio lesson that counts as watched.
const autoCompleteRatio = 0.9
