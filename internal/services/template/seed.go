package template

import (
	"context"
	"os"

	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// seedFile is the on-disk shape of the template seed configuration.
type seedFile struct {
	WebhookBaseURL string         `yaml:"webhook_base_url"`
	Templates      []seedTemplate `yaml:"templates"`
}

type seedTemplate struct {
	Name            string      `yaml:"name"`
	Description     string      `yaml:"description"`
	SubjectTemplate string      `yaml:"subject_template"`
	BodyTemplate    string      `yaml:"body_template"`
	Parameters      []Parameter `yaml:"parameters"`
	SenderEmail     string      `yaml:"sender_email"`
	ToolID          string      `yaml:"tool_id"`
}

// LoadSeedFile loads templates from a YAML seed file. Entries carrying a
// tool_id reuse that tool instead of registering a duplicate on every
// restart; entries without one go through normal creation. A missing file is
// not an error. Returns the number of templates loaded.
func (s *Service) LoadSeedFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Base().Info("no template seed file found", zap.String("path", path))
			return 0, nil
		}
		return 0, err
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, err
	}

	loaded := 0
	for _, entry := range seed.Templates {
		templateID := TemplateID(entry.Name)
		if _, exists := s.GetTemplate(templateID); exists {
			logger.Base().Info("seed template already exists, skipping",
				zap.String("template_id", templateID))
			continue
		}

		if entry.ToolID != "" {
			tmpl := EmailTemplate{
				TemplateID:      templateID,
				Name:            entry.Name,
				Description:     entry.Description,
				SubjectTemplate: entry.SubjectTemplate,
				BodyTemplate:    entry.BodyTemplate,
				Parameters:      entry.Parameters,
				SenderEmail:     entry.SenderEmail,
				ToolID:          entry.ToolID,
			}
			s.mu.Lock()
			s.templates[templateID] = tmpl
			s.mu.Unlock()
			logger.Base().Info("loaded seed template with existing tool",
				zap.String("template_id", templateID), zap.String("tool_id", entry.ToolID))
			loaded++
			continue
		}

		if _, err := s.CreateTemplate(ctx, entry.Name, entry.Description, entry.SubjectTemplate, entry.BodyTemplate, entry.Parameters, true, entry.SenderEmail); err != nil {
			logger.Base().Error("could not create seed template",
				zap.String("template_id", templateID), zap.Error(err))
			continue
		}
		loaded++
	}

	logger.Base().Info("loaded templates from seed file",
		zap.String("path", path), zap.Int("count", loaded))
	return loaded, nil
}
