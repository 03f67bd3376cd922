package stats

type StatusCount struct {
	Status string
	Count  int
}

type CategoryStat struct {
	Category     string
	ReviewCount  int
	AverageScore float64
}

// Dashboard is the aggregate view served at /stats/dashboard.
type Dashboard struct {
	PullRequests []StatusCount
	Reviews      []StatusCount
	Categories   []CategoryStat
}
