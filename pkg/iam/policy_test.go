package iam_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secretforge/secretforge/pkg/cfn"
	"github.com/secretforge/secretforge/pkg/construct"
	"github.com/secretforge/secretforge/pkg/iam"
)

func TestPolicyStatementRender(t *testing.T) {
	t.Parallel()

	st := iam.NewPolicyStatement(iam.EffectAllow).
		AddActions("secretsmanager:GetSecretValue").
		AddResources("arn:aws:secretsmanager:us-east-1:123456789012:secret:db-AbCdEf").
		AddCondition("ForAnyValue:StringEquals", "secretsmanager:VersionStage", []string{"AWSCURRENT"})

	data, err := json.Marshal(st)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"Effect": "Allow",
		"Action": ["secretsmanager:GetSecretValue"],
		"Resource": ["arn:aws:secretsmanager:us-east-1:123456789012:secret:db-AbCdEf"],
		"Condition": {
			"ForAnyValue:StringEquals": {
				"secretsmanager:VersionStage": ["AWSCURRENT"]
			}
		}
	}`, string(data))
}

func TestPolicyStatementDefaultEffect(t *testing.T) {
	t.Parallel()

	st := iam.NewPolicyStatement("").AddActions("kms:Decrypt")

	data, err := json.Marshal(st)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Allow", doc["Effect"])
}

func TestPolicyStatementPrincipals(t *testing.T) {
	t.Parallel()

	st := iam.NewPolicyStatement(iam.EffectAllow).
		AddActions("sts:AssumeRole").
		AddPrincipals(iam.ServicePrincipal("lambda.amazonaws.com"))

	data, err := json.Marshal(st)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"Effect": "Allow",
		"Action": ["sts:AssumeRole"],
		"Principal": {"Service": ["lambda.amazonaws.com"]}
	}`, string(data))
}

func TestPolicyDocumentRender(t *testing.T) {
	t.Parallel()

	doc := iam.NewPolicyDocument()
	doc.AddStatement(iam.NewPolicyStatement(iam.EffectAllow).AddActions("kms:Decrypt").AddResources("*"))

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [
			{"Effect": "Allow", "Action": ["kms:Decrypt"], "Resource": ["*"]}
		]
	}`, string(data))
}

func TestPolicyDocumentReflectsLaterStatements(t *testing.T) {
	t.Parallel()

	doc := iam.NewPolicyDocument()
	st := iam.NewPolicyStatement(iam.EffectAllow).AddActions("secretsmanager:GetSecretValue")
	doc.AddStatement(st)

	// Refining a held statement after adding it must be visible at render time
	st.AddCondition("StringEquals", "kms:ViaService", "secretsmanager.us-east-1.amazonaws.com")

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kms:ViaService")
}

func TestNewRole(t *testing.T) {
	t.Parallel()

	stack, err := construct.NewStack("test")
	require.NoError(t, err)

	role, err := iam.NewRole(stack.Scope(), "Reader", iam.RoleProps{
		AssumedBy: iam.ServicePrincipal("lambda.amazonaws.com"),
	})
	require.NoError(t, err)

	res := stack.Template().Resource(role.LogicalID())
	require.NotNil(t, res)
	assert.Equal(t, "AWS::IAM::Role", res.Type)
	assert.NotNil(t, res.Properties["AssumeRolePolicyDocument"])

	// No default policy until the first grant
	assert.Empty(t, stack.Template().ResourcesOfType("AWS::IAM::Policy"))
	assert.Equal(t, cfn.GetAtt(role.LogicalID(), "Arn"), role.RoleArn())
}

func TestNewRoleRequiresPrincipal(t *testing.T) {
	t.Parallel()

	stack, err := construct.NewStack("test")
	require.NoError(t, err)

	_, err = iam.NewRole(stack.Scope(), "Reader", iam.RoleProps{})
	require.Error(t, err)
}

func TestRoleAddToPolicy(t *testing.T) {
	t.Parallel()

	stack, err := construct.NewStack("test")
	require.NoError(t, err)

	role, err := iam.NewRole(stack.Scope(), "Reader", iam.RoleProps{
		AssumedBy: iam.ServicePrincipal("lambda.amazonaws.com"),
	})
	require.NoError(t, err)

	attached := role.AddToPolicy(iam.NewPolicyStatement(iam.EffectAllow).AddActions("secretsmanager:GetSecretValue"))
	assert.True(t, attached)
	assert.Equal(t, 1, role.DefaultPolicy().StatementCount())

	// First statement materializes exactly one policy resource
	policies := stack.Template().ResourcesOfType("AWS::IAM::Policy")
	require.Len(t, policies, 1)

	role.AddToPolicy(iam.NewPolicyStatement(iam.EffectAllow).AddActions("kms:Decrypt"))
	assert.Equal(t, 2, role.DefaultPolicy().StatementCount())
	assert.Len(t, stack.Template().ResourcesOfType("AWS::IAM::Policy"), 1)

	// The policy resource references the role
	policy := stack.Template().Resource(policies[0])
	roles := policy.Properties["Roles"].([]interface{})
	require.Len(t, roles, 1)
	assert.True(t, cfn.IsRef(roles[0], role.LogicalID()))
}

func TestImportedRole(t *testing.T) {
	t.Parallel()

	role := iam.RoleFromArn("arn:aws:iam::123456789012:role/external")
	assert.Equal(t, "arn:aws:iam::123456789012:role/external", role.Arn())
	assert.False(t, role.AddToPolicy(iam.NewPolicyStatement(iam.EffectAllow)))
}

func TestNewGrant(t *testing.T) {
	t.Parallel()

	stack, err := construct.NewStack("test")
	require.NoError(t, err)
	role, err := iam.NewRole(stack.Scope(), "Reader", iam.RoleProps{
		AssumedBy: iam.ServicePrincipal("lambda.amazonaws.com"),
	})
	require.NoError(t, err)

	st := iam.NewPolicyStatement(iam.EffectAllow).AddActions("kms:Decrypt").AddResources("*")
	grant := iam.NewGrant(role, st, "*")

	assert.True(t, grant.AttachedToPrincipal)
	assert.Same(t, st, grant.Statement)
	assert.Equal(t, "*", grant.Resource)

	imported := iam.RoleFromArn("arn:aws:iam::123456789012:role/external")
	grant = iam.NewGrant(imported, st, "*")
	assert.False(t, grant.AttachedToPrincipal)
}
