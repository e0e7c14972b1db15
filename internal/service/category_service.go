package service

import (
	"strings"

	"todo-board/internal/model"
)

// CategoryService offers category choices: the configured defaults first,
// then any other category already used by tasks.
type CategoryService struct {
	defaults []string
}

func NewCategoryService(defaults ...string) *CategoryService {
	if len(defaults) == 0 {
		defaults = []string{model.DefaultCategory}
	}
	return &CategoryService{defaults: defaults}
}

// Default is the preselected category.
func (s *CategoryService) Default() string {
	return s.defaults[0]
}

// Normalize trims raw and falls back to the default category.
func (s *CategoryService) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.Default()
	}
	return raw
}

func (s *CategoryService) List(tasks []model.Task) []string {
	seen := make(map[string]bool, len(s.defaults))
	out := make([]string, 0, len(s.defaults))
	for _, c := range s.defaults {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, t := range tasks {
		c := strings.TrimSpace(t.Category)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
