package model

type JobStats struct {
	// Total is the total number of analysis jobs.
	Total int
	// Total number of jobs by lifecycle status.
	TotalByStatus map[string]int
	// TotalReports is the number of persisted report documents.
	TotalReports int
}

func NewJobStats(jobs JobList, totalReports int) JobStats {
	byStatus := make(map[string]int)
	for _, job := range jobs {
		byStatus[job.Status]++
	}

	return JobStats{
		Total:         len(jobs),
		TotalByStatus: byStatus,
		TotalReports:  totalReports,
	}
}
