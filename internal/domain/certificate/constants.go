package certificate

const (
	TypeCourse       = "course"
	TypeLearningPath = "learning_path"
)

const tokenLength = 12

const dateLayout = "2006-01-02"
