package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
)

// templateSeed is one entry of the YAML seed file:
//
//	templates:
//	  - name: Dorm daily
//	    area_type: room
//	    task_type: daily
//	    estimated_minutes: 30
//	    checklist:
//	      - task: Make beds
//	        required: true
type templateSeed struct {
	Name             string `yaml:"name"`
	AreaType         string `yaml:"area_type"`
	TaskType         string `yaml:"task_type"`
	EstimatedMinutes *int   `yaml:"estimated_minutes"`
	Inactive         bool   `yaml:"inactive"`
	Checklist        []struct {
		Task     string `yaml:"task"`
		Required bool   `yaml:"required"`
	} `yaml:"checklist"`
}

type templateSeedFile struct {
	Templates []templateSeed `yaml:"templates"`
}

// ParseTemplateSeed decodes and validates a seed document.
func ParseTemplateSeed(data []byte) ([]domain.CleaningTemplate, error) {
	var file templateSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse template seed: %w", err)
	}

	out := make([]domain.CleaningTemplate, 0, len(file.Templates))
	for i, seed := range file.Templates {
		if seed.Name == "" {
			return nil, fmt.Errorf("template %d: name is required", i)
		}
		tpl := domain.CleaningTemplate{
			ID:               uuid.NewString(),
			Name:             seed.Name,
			AreaType:         domain.AreaType(seed.AreaType),
			TaskType:         domain.TaskType(seed.TaskType),
			EstimatedMinutes: seed.EstimatedMinutes,
			Active:           !seed.Inactive,
			Checklist:        []domain.ChecklistItem{},
		}
		if tpl.TaskType == "" {
			tpl.TaskType = domain.TaskDaily
		}
		if !tpl.AreaType.Valid() {
			return nil, fmt.Errorf("template %q: invalid area_type %q", seed.Name, seed.AreaType)
		}
		if !tpl.TaskType.Valid() {
			return nil, fmt.Errorf("template %q: invalid task_type %q", seed.Name, seed.TaskType)
		}
		for _, item := range seed.Checklist {
			tpl.Checklist = append(tpl.Checklist, domain.ChecklistItem{
				ID:       uuid.NewString(),
				Task:     item.Task,
				Required: item.Required,
			})
		}
		out = append(out, tpl)
	}
	return out, nil
}

// SeedTemplates upserts every template in the YAML file at path.
func SeedTemplates(ctx context.Context, repo *CleaningRepository, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	templates, err := ParseTemplateSeed(data)
	if err != nil {
		return 0, err
	}
	for _, tpl := range templates {
		if err := repo.UpsertTemplate(ctx, tpl); err != nil {
			return 0, fmt.Errorf("upsert template %q: %w", tpl.Name, err)
		}
	}
	return len(templates), nil
}
