package jsearch

import (
	"strings"

	"job-bot-go/internal/models"
)

// filterJobs drops invalid listings, listings paying less than minSalary and,
// when remoteOnly is set, listings that never mention remote work.
func filterJobs(jobs []models.Job, minSalary *int, remoteOnly bool) []models.Job {
	filtered := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		if !isValidJob(job) {
			continue
		}

		// listings without a minimum salary are kept
		if minSalary != nil && job.HasMinSalary() && *job.MinSalary < float64(*minSalary) {
			continue
		}

		if remoteOnly && !mentionsRemote(job) {
			continue
		}

		filtered = append(filtered, job)
	}
	return filtered
}

func isValidJob(job models.Job) bool {
	return job.Title != "" && job.EmployerName != ""
}

func mentionsRemote(job models.Job) bool {
	return strings.Contains(strings.ToLower(job.Title), "remote") ||
		strings.Contains(strings.ToLower(job.Description), "remote")
}

// removeDuplicates keeps the first listing for each title and employer pair,
// compared case-insensitively.
func removeDuplicates(jobs []models.Job) []models.Job {
	seen := make(map[jobKey]bool, len(jobs))
	unique := make([]models.Job, 0, len(jobs))

	for _, job := range jobs {
		key := keyOf(job)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, job)
	}
	return unique
}

type jobKey struct {
	title    string
	employer string
}

func keyOf(job models.Job) jobKey {
	return jobKey{
		title:    strings.ToLower(job.Title),
		employer: strings.ToLower(job.EmployerName),
	}
}

func truncate(jobs []models.Job, limit int) []models.Job {
	if limit >= 0 && len(jobs) > limit {
		return jobs[:limit]
	}
	return jobs
}
