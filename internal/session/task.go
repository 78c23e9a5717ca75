// ABOUTME: Tagged pending-task variants carried across conversational turns
// ABOUTME: Each task holds exactly the context its commit step needs

package session

// pendingTask is the edit intent held between the prompt and the input (or
// confirmation) that completes it. Each variant carries its own payload, so
// a commit step can never read context belonging to a different task.
type pendingTask interface {
	taskName() string
}

type addSectionTask struct{}

type renameSectionTask struct {
	sectionID    string
	previousName string
}

type addModeTask struct {
	sectionID string
}

type renameModeTask struct {
	sectionID    string
	modeID       string
	previousName string
}

type deleteSectionTask struct {
	sectionID string
	name      string
}

type deleteModeTask struct {
	sectionID string
	modeID    string
	name      string
}

func (addSectionTask) taskName() string    { return "add_section" }
func (renameSectionTask) taskName() string { return "rename_section" }
func (addModeTask) taskName() string       { return "add_mode" }
func (renameModeTask) taskName() string    { return "rename_mode" }
func (deleteSectionTask) taskName() string { return "delete_section" }
func (deleteModeTask) taskName() string    { return "delete_mode" }
