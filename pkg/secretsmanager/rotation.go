package secretsmanager

import (
	"github.com/secretforge/secretforge/internal/errors"
	"github.com/secretforge/secretforge/pkg/cfn"
	"github.com/secretforge/secretforge/pkg/construct"
)

const rotationResourceType = "AWS::SecretsManager::RotationSchedule"

// defaultRotationDays is the rotation interval used when none is configured.
const defaultRotationDays = 30

// RotationScheduleOptions configures a rotation schedule. The rotation
// function itself is external; only its ARN is recorded here.
type RotationScheduleOptions struct {
	// RotationLambdaArn is the function performing the rotation. Required.
	RotationLambdaArn string
	// AutomaticallyAfterDays is the rotation interval; 0 means 30 days.
	AutomaticallyAfterDays int
}

// RotationSchedule registers a periodic rotation configuration against a
// secret.
type RotationSchedule struct {
	logicalID string
}

func newRotationSchedule(parent *construct.Scope, id string, secretArn interface{}, opts RotationScheduleOptions) (*RotationSchedule, error) {
	if opts.RotationLambdaArn == "" {
		return nil, errors.ConfigError{
			Field:      "rotationLambdaArn",
			Message:    "a rotation schedule must name its rotation function",
			Suggestion: "Set the ARN of the Lambda function that rotates the secret",
		}
	}
	days := opts.AutomaticallyAfterDays
	if days == 0 {
		days = defaultRotationDays
	}
	if days < 0 {
		return nil, errors.ConfigError{
			Field:      "automaticallyAfterDays",
			Value:      days,
			Message:    "rotation interval must be positive",
			Suggestion: "Use a day count of 1 or more, or leave it unset for the 30 day default",
		}
	}

	scope, err := parent.Child(id)
	if err != nil {
		return nil, err
	}

	logicalID := scope.LogicalID()
	res := &cfn.Resource{
		Type: rotationResourceType,
		Properties: map[string]interface{}{
			"SecretId":          secretArn,
			"RotationLambdaARN": opts.RotationLambdaArn,
			"RotationRules": map[string]interface{}{
				"AutomaticallyAfterDays": days,
			},
		},
	}
	if err := scope.Stack().Template().AddResource(logicalID, res); err != nil {
		return nil, err
	}

	return &RotationSchedule{logicalID: logicalID}, nil
}

// LogicalID returns the schedule's logical ID within the template.
func (r *RotationSchedule) LogicalID() string {
	return r.logicalID
}

// Ref returns a token referencing the schedule.
func (r *RotationSchedule) Ref() cfn.Token {
	return cfn.Ref(r.logicalID)
}
