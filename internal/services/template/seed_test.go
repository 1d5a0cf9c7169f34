package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `webhook_base_url: https://api.example.com/api/v1
templates:
  - name: Appointment Confirmation
    description: Confirms a booked appointment
    subject_template: "Your appointment on {{appointment_date}}"
    body_template: "Hi {{customer_name}}, see you then."
    sender_email: sales@example.com
    tool_id: tool_existing
  - name: Follow Up
    description: Post-call follow up
    subject_template: "Thanks for your time"
    body_template: "Hi {{customer_name}}, {{summary}}"
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "email_templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	registrar := &fakeRegistrar{nextToolID: "tool_new"}
	svc := NewService(registrar, "https://api.example.com/api/v1", "")

	loaded, err := svc.LoadSeedFile(context.Background(), writeSeed(t, seedYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	// The entry with a tool_id reuses it without touching the gateway.
	confirmation, ok := svc.GetTemplate("appointment_confirmation")
	require.True(t, ok)
	assert.Equal(t, "tool_existing", confirmation.ToolID)
	assert.Equal(t, "sales@example.com", confirmation.SenderEmail)

	// The entry without one registers a fresh tool.
	followUp, ok := svc.GetTemplate("follow_up")
	require.True(t, ok)
	assert.Equal(t, "tool_new", followUp.ToolID)
	require.Len(t, registrar.created, 1)
	assert.Equal(t, "follow_up", registrar.created[0].Name)
}

func TestLoadSeedFileSkipsExisting(t *testing.T) {
	svc := NewService(&fakeRegistrar{}, "https://api.example.com", "")
	_, err := svc.CreateTemplate(context.Background(), "Appointment Confirmation", "", "S", "B", nil, false, "")
	require.NoError(t, err)

	loaded, err := svc.LoadSeedFile(context.Background(), writeSeed(t, seedYAML))
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	// The pre-existing template keeps its original body.
	tmpl, _ := svc.GetTemplate("appointment_confirmation")
	assert.Equal(t, "B", tmpl.BodyTemplate)
}

func TestLoadSeedFileMissing(t *testing.T) {
	svc := NewService(&fakeRegistrar{}, "https://api.example.com", "")

	loaded, err := svc.LoadSeedFile(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Zero(t, loaded)
}

func TestLoadSeedFileMalformed(t *testing.T) {
	svc := NewService(&fakeRegistrar{}, "https://api.example.com", "")

	_, err := svc.LoadSeedFile(context.Background(), writeSeed(t, "templates: [not: valid"))
	assert.Error(t, err)
}
