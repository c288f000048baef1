package constant

const (
	RoleCitizen    = "citizen"
	RoleSupervisor = "supervisor"
)

const (
	FolderReports     = "reports"
	FolderResolutions = "resolutions"
)

const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

const (
	DefaultTriageLimit = 20
	MaxTriageLimit     = 50

	DefaultNearLimit = 20
	MaxNearLimit     = 100
)

const DefaultProfileImage = "default-avatar.png"
