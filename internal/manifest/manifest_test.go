package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secretforge/secretforge/internal/errors"
	"github.com/secretforge/secretforge/internal/manifest"
)

const validManifest = `version: 1
stack: orders
description: Orders service secrets

keys:
  appKey:
    description: Application key
    enableRotation: true
  sharedKey:
    arn: arn:aws:kms:us-east-1:123456789012:key/11111111-2222-3333-4444-555555555555

roles:
  reader:
    assumedBy:
      service: lambda.amazonaws.com

secrets:
  dbCredentials:
    description: Orders database credentials
    encryptionKey: appKey
    generate:
      template: '{"username": "admin"}'
      key: password
      excludeCharacters: '"@/'
    rotation:
      lambdaArn: arn:aws:lambda:us-east-1:123456789012:function:rotate-db
      afterDays: 45
  legacy:
    arn: arn:aws:secretsmanager:us-east-1:123456789012:secret:legacy-AbCdEf

attachments:
  dbAttachment:
    secret: dbCredentials
    targetId: orders-db
    targetType: instance

grants:
  - role: reader
    secret: dbAttachment
    versionStages: [AWSCURRENT]
`

func TestParseValidManifest(t *testing.T) {
	t.Parallel()

	m, err := manifest.Parse([]byte(validManifest))
	require.NoError(t, err)

	assert.Equal(t, 1, m.Version)
	assert.Equal(t, "orders", m.Stack)
	assert.Len(t, m.Keys, 2)
	assert.Len(t, m.Secrets, 2)
	assert.Len(t, m.Attachments, 1)
	require.Len(t, m.Grants, 1)

	db := m.Secrets["dbCredentials"]
	require.NotNil(t, db.Generate)
	assert.Equal(t, `{"username": "admin"}`, db.Generate.Template)
	assert.Equal(t, "password", db.Generate.Key)
	require.NotNil(t, db.Rotation)
	assert.Equal(t, 45, db.Rotation.AfterDays)

	assert.Equal(t, "instance", m.Attachments["dbAttachment"].TargetType)
	assert.Equal(t, []string{"AWSCURRENT"}, m.Grants[0].VersionStages)
}

func TestParseSchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest string
	}{
		{
			name:     "missing_stack",
			manifest: "version: 1\n",
		},
		{
			name:     "wrong_version",
			manifest: "version: 2\nstack: orders\n",
		},
		{
			name: "unknown_top_level_field",
			manifest: `version: 1
stack: orders
surprises: true
`,
		},
		{
			name: "bad_target_type",
			manifest: `version: 1
stack: orders
attachments:
  a:
    secret: s
    targetId: db
    targetType: queue
`,
		},
		{
			name: "grant_missing_role",
			manifest: `version: 1
stack: orders
grants:
  - secret: s
`,
		},
		{
			name: "rotation_missing_lambda",
			manifest: `version: 1
stack: orders
secrets:
  s:
    rotation:
      afterDays: 10
`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := manifest.Parse([]byte(tt.manifest))
			require.Error(t, err)
			assert.True(t, errors.IsConfigError(err))
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := manifest.Parse([]byte("version: 1\n stack: [unclosed"))
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "secretforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validManifest), 0o644))

	m, err := manifest.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "orders", m.Stack)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := manifest.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
	assert.Contains(t, err.Error(), "manifest file not found")
}
