package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go-jobscout/internal/models"
)

// TaskValidator rejects tasks that cannot run, e.g. an unknown site or an unmapped filter.
type TaskValidator interface {
	ValidateTask(t models.Task) error
}

// BuildTasks turns the task section into models.Task values, reading profile files from
// ProfilesDir. Any error here is fatal and happens before a browser is launched.
func BuildTasks(cfg *Config, v TaskValidator) ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(cfg.Tasks))
	for i, tc := range cfg.Tasks {
		task, err := cfg.buildTask(tc)
		if err != nil {
			return nil, fmt.Errorf("tasks[%d] (%s): %w", i, tc.SiteName, err)
		}
		if v != nil {
			if err := v.ValidateTask(task); err != nil {
				return nil, fmt.Errorf("tasks[%d] (%s): %w", i, tc.SiteName, err)
			}
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (c *Config) buildTask(tc TaskConfig) (models.Task, error) {
	workExp, err := c.readProfile(tc.WorkExp)
	if err != nil {
		return models.Task{}, fmt.Errorf("work_exp: %w", err)
	}
	skills, err := c.readProfile(tc.Skillset)
	if err != nil {
		return models.Task{}, fmt.Errorf("skillset: %w", err)
	}
	if tc.LLMFilter && workExp == "" && skills == "" {
		return models.Task{}, fmt.Errorf("llm_filter needs work_exp or skillset")
	}

	task := models.Task{
		Site:      strings.ToLower(strings.TrimSpace(tc.SiteName)),
		LLMFilter: tc.LLMFilter,
		Profile:   models.Profile{WorkExperience: workExp, Skills: skills},
	}
	for j, qc := range tc.Queries {
		q, err := buildQuery(qc, tc.ExcludedCompanies)
		if err != nil {
			return models.Task{}, fmt.Errorf("queries[%d]: %w", j, err)
		}
		task.Queries = append(task.Queries, q)
	}
	return task, nil
}

func buildQuery(qc QueryConfig, excluded []string) (models.SearchQuery, error) {
	exp, err := models.ParseExpLevel(qc.ExperienceLevel)
	if err != nil {
		return models.SearchQuery{}, err
	}
	jt, err := models.ParseJobType(qc.JobType)
	if err != nil {
		return models.SearchQuery{}, err
	}
	wp, err := models.ParseWorkplace(qc.Workplace)
	if err != nil {
		return models.SearchQuery{}, err
	}
	return models.SearchQuery{
		JobTitle:          strings.TrimSpace(qc.JobTitle),
		Location:          strings.TrimSpace(qc.Location),
		NumJobs:           qc.NumJobs,
		HoursWithin:       qc.HoursWithin,
		IncludeWords:      qc.IncludeWords,
		ExcludeWords:      qc.ExcludeWords,
		ExcludedCompanies: excluded,
		FetchDescription:  qc.FetchDescription,
		ExpLevel:          exp,
		JobType:           jt,
		Workplace:         wp,
		CustomURL:         qc.CustomURL,
	}, nil
}

// readProfile reads name under ProfilesDir. An empty name is an empty profile part.
func (c *Config) readProfile(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.ProfilesDir, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
